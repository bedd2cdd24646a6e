package port

import (
	"time"

	"safety-card-bot/internal/domain/entity"
)

// Observer получает события конвейера для метрик
type Observer interface {
	ObserveDetection(result *entity.DetectionResult, took time.Duration)
	ObserveChecklist(entries []entity.ChecklistEntry)
	ReportRendered()
	ObservationSubmitted()
	Failed(stage string)
}
