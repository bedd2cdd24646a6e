package port

import (
	"context"
	"errors"

	"safety-card-bot/internal/domain/entity"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("observation not found")

// ObservationRepository интерфейс хранилища записей наблюдений
type ObservationRepository interface {
	// Save сохраняет запись вместе с отчётом
	Save(ctx context.Context, stored entity.StoredObservation) error

	// Get возвращает запись по ID или ErrNotFound
	Get(ctx context.Context, id string) (*entity.StoredObservation, error)

	// List возвращает последние записи, новые первыми
	List(ctx context.Context, limit int) ([]entity.StoredObservation, error)
}
