package port

import (
	"context"

	"safety-card-bot/internal/domain/entity"
)

// ReportArchiver копирует готовый отчёт и размеченное фото во внешнее хранилище
type ReportArchiver interface {
	// Archive возвращает адрес отчёта в архиве
	Archive(ctx context.Context, obs entity.Observation, report entity.Report, annotated []byte) (string, error)
}
