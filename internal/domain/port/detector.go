package port

import (
	"context"
	"errors"

	"safety-card-bot/internal/domain/entity"
)

// ErrDetectorUnavailable детектор не может работать в этой сборке
var ErrDetectorUnavailable = errors.New("ppe detector is unavailable")

// PPEDetector интерфейс детектора средств индивидуальной защиты
type PPEDetector interface {
	// Detect анализирует изображение и возвращает найденные объекты
	Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error)

	// Annotate рисует рамки и подписи найденных объектов
	Annotate(imageData []byte, result *entity.DetectionResult) ([]byte, error)

	// Classes возвращает словарь классов модели
	Classes() []string
}
