package port

import (
	"context"

	"safety-card-bot/internal/domain/entity"
)

// ReportRenderer превращает запись наблюдения в документ
type ReportRenderer interface {
	Render(ctx context.Context, obs entity.Observation) (*entity.Report, error)
}
