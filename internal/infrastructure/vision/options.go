package vision

import (
	"image/color"
	"strings"

	"safety-card-bot/internal/domain/entity"
)

// Options параметры детектора YOLO.
type Options struct {
	ModelPath    string   // путь к ONNX-модели
	Classes      []string // имена классов в порядке выходов модели
	Confidence   float64  // минимальная уверенность детекции
	NMSThreshold float64  // порог IoU для подавления пересечений
	InputSize    int      // сторона входного квадрата сети
}

// DefaultClasses классы модели, на которой обучался детектор СИЗ.
func DefaultClasses() []string {
	return []string{"hairnet", "goggles", "mask", "gloves", "shoes", "full-body suit"}
}

func (o Options) withDefaults() Options {
	if len(o.Classes) == 0 {
		o.Classes = DefaultClasses()
	}
	if o.Confidence <= 0 {
		o.Confidence = 0.5
	}
	if o.NMSThreshold <= 0 {
		o.NMSThreshold = 0.45
	}
	if o.InputSize <= 0 {
		o.InputSize = 640
	}
	return o
}

var defaultBoxColor = color.RGBA{G: 255, A: 255}

var classColors = map[string]color.RGBA{
	"hairnet":        {B: 255, A: 255},
	"goggles":        {R: 255, G: 255, B: 255, A: 255},
	"mask":           {R: 255, A: 255},
	"full-body suit": {G: 255, A: 255},
	"gloves":         {R: 165, G: 42, B: 42, A: 255},
	"shoes":          {A: 255},
}

// ClassColor цвет рамки для класса; неизвестные классы рисуются зелёным.
func ClassColor(label string) color.RGBA {
	if c, ok := classColors[entity.NormalizeLabel(label)]; ok {
		return c
	}
	return defaultBoxColor
}

// ParseClasses разбирает список классов из конфигурации ("a,b,c").
func ParseClasses(raw string) []string {
	var classes []string
	for _, part := range strings.Split(raw, ",") {
		if c := entity.NormalizeLabel(part); c != "" {
			classes = append(classes, c)
		}
	}
	return classes
}
