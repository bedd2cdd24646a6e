//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"fmt"

	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

// errNoGoCV сборка без тега gocv, модель не загружена.
var errNoGoCV = fmt.Errorf("%w: gocv build tag is not enabled", port.ErrDetectorUnavailable)

// YOLODetector детектор-заглушка (без OpenCV): знает словарь классов, но не запускает модель.
type YOLODetector struct {
	opts Options
}

// NewYOLODetector создаёт заглушку; файл модели не читается.
func NewYOLODetector(opts Options) (*YOLODetector, error) {
	return &YOLODetector{opts: opts.withDefaults()}, nil
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error) {
	_ = ctx
	_ = imageData
	return nil, errNoGoCV
}

// Annotate возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Annotate(imageData []byte, result *entity.DetectionResult) ([]byte, error) {
	_ = imageData
	_ = result
	return nil, errNoGoCV
}

// Classes возвращает словарь классов из настроек.
func (d *YOLODetector) Classes() []string {
	return append([]string(nil), d.opts.Classes...)
}

// Close ничего не освобождает.
func (d *YOLODetector) Close() error {
	return nil
}

// Проверка реализации интерфейса
var _ port.PPEDetector = (*YOLODetector)(nil)
