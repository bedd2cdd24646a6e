package entity

import "strings"

// BoundingBox прямоугольник найденного объекта в пикселях исходного изображения.
type BoundingBox struct {
	X1 int // левый верхний угол
	Y1 int
	X2 int // правый нижний угол
	Y2 int
}

// Width возвращает ширину прямоугольника.
func (b BoundingBox) Width() int {
	return b.X2 - b.X1
}

// Height возвращает высоту прямоугольника.
func (b BoundingBox) Height() int {
	return b.Y2 - b.Y1
}

// Center возвращает координаты центра прямоугольника
func (b BoundingBox) Center() (x, y int) {
	return b.X1 + b.Width()/2, b.Y1 + b.Height()/2
}

// Detection один объект, найденный моделью.
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// DetectionResult хранит итог анализа изображения детектором СИЗ.
type DetectionResult struct {
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
	Detections  []Detection `json:"detections"`
}

// NormalizeLabel приводит метку детектора к виду, в котором она хранится в каталоге.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Labels возвращает уникальные нормализованные метки в порядке первого появления.
func (r *DetectionResult) Labels() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Detections))
	labels := make([]string, 0, len(r.Detections))
	for _, d := range r.Detections {
		label := NormalizeLabel(d.Label)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
