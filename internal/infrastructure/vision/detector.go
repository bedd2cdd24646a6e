//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"gocv.io/x/gocv"

	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

// YOLODetector запускает YOLOv8 (ONNX) через OpenCV DNN.
type YOLODetector struct {
	opts Options

	mu  sync.Mutex // gocv.Net не потокобезопасен
	net gocv.Net
}

// NewYOLODetector загружает модель из opts.ModelPath.
func NewYOLODetector(opts Options) (*YOLODetector, error) {
	opts = opts.withDefaults()
	net := gocv.ReadNet(opts.ModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("load model %s: empty network", opts.ModelPath)
	}
	return &YOLODetector{opts: opts, net: net}, nil
}

// Detect прогоняет изображение через сеть и возвращает объекты после NMS.
func (d *YOLODetector) Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	size := d.opts.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	// Выход YOLOv8: [1, 4+классы, кандидаты], по строкам cx, cy, w, h, оценки классов.
	dims := out.Size()
	if len(dims) != 3 || dims[1] < 5 {
		return nil, fmt.Errorf("unexpected model output shape %v", dims)
	}
	channels, candidates := dims[1], dims[2]
	numClasses := channels - 4
	if numClasses > len(d.opts.Classes) {
		return nil, fmt.Errorf("model has %d classes, %d names configured", numClasses, len(d.opts.Classes))
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}

	xFactor := float64(mat.Cols()) / float64(size)
	yFactor := float64(mat.Rows()) / float64(size)

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []int
	)
	for i := 0; i < candidates; i++ {
		bestClass, bestScore := -1, float32(0)
		for c := 0; c < numClasses; c++ {
			score := data[(4+c)*candidates+i]
			if score > bestScore {
				bestClass, bestScore = c, score
			}
		}
		if bestClass < 0 || float64(bestScore) < d.opts.Confidence {
			continue
		}

		cx := float64(data[0*candidates+i])
		cy := float64(data[1*candidates+i])
		w := float64(data[2*candidates+i])
		h := float64(data[3*candidates+i])
		x1 := int((cx - w/2) * xFactor)
		y1 := int((cy - h/2) * yFactor)
		x2 := int((cx + w/2) * xFactor)
		y2 := int((cy + h/2) * yFactor)

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		scores = append(scores, bestScore)
		classes = append(classes, bestClass)
	}

	detections := make([]entity.Detection, 0, len(boxes))
	if len(boxes) > 0 {
		for _, idx := range suppress(boxes, scores, classes, d.opts.NMSThreshold) {
			r := boxes[idx].Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
			detections = append(detections, entity.Detection{
				Label:      d.opts.Classes[classes[idx]],
				Confidence: float64(scores[idx]),
				Box:        entity.BoundingBox{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y},
			})
		}
	}

	return &entity.DetectionResult{
		ImageWidth:  mat.Cols(),
		ImageHeight: mat.Rows(),
		Detections:  detections,
	}, nil
}

// Annotate рисует рамки с подписями классов и возвращает JPEG.
func (d *YOLODetector) Annotate(imageData []byte, result *entity.DetectionResult) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if result != nil {
		for _, det := range result.Detections {
			c := ClassColor(det.Label)
			rect := image.Rect(det.Box.X1, det.Box.Y1, det.Box.X2, det.Box.Y2)
			gocv.Rectangle(&mat, rect, c, 2)
			gocv.PutText(&mat, det.Label, image.Pt(det.Box.X1, det.Box.Y1-10), gocv.FontHersheySimplex, 0.5, c, 1)
		}
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Classes возвращает словарь классов модели.
func (d *YOLODetector) Classes() []string {
	return append([]string(nil), d.opts.Classes...)
}

// Close освобождает сеть.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

// Проверка реализации интерфейса
var _ port.PPEDetector = (*YOLODetector)(nil)
