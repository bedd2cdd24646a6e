package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

// Metrics счётчики сервиса в собственном реестре Prometheus.
type Metrics struct {
	registry *prometheus.Registry

	detections       *prometheus.CounterVec
	detectionLatency prometheus.Histogram
	checklist        *prometheus.CounterVec
	observations     prometheus.Counter
	reports          prometheus.Counter
	errors           *prometheus.CounterVec
}

// New создаёт и регистрирует все метрики.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppe_detections_total",
			Help: "Objects returned by the detector, by label",
		}, []string{"label"}),
		detectionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ppe_detection_duration_seconds",
			Help:    "Detector inference latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		checklist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppe_checklist_entries_total",
			Help: "Checklist entries produced, by category group and status",
		}, []string{"group", "status"}),
		observations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppe_observations_total",
			Help: "Observation records submitted",
		}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppe_reports_rendered_total",
			Help: "Safety observation cards rendered",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppe_errors_total",
			Help: "Failed pipeline stages",
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.detections,
		m.detectionLatency,
		m.checklist,
		m.observations,
		m.reports,
		m.errors,
	)
	return m
}

// ObserveDetection учитывает результат одного прогона детектора.
func (m *Metrics) ObserveDetection(result *entity.DetectionResult, took time.Duration) {
	m.detectionLatency.Observe(took.Seconds())
	if result == nil {
		return
	}
	for _, d := range result.Detections {
		m.detections.WithLabelValues(entity.NormalizeLabel(d.Label)).Inc()
	}
}

// ObserveChecklist учитывает статусы строк чек-листа.
func (m *Metrics) ObserveChecklist(entries []entity.ChecklistEntry) {
	for _, e := range entries {
		m.checklist.WithLabelValues(string(e.Group), string(e.Status)).Inc()
	}
}

// ReportRendered учитывает успешно нарисованный PDF.
func (m *Metrics) ReportRendered() {
	m.reports.Inc()
}

// ObservationSubmitted учитывает сохранённую запись.
func (m *Metrics) ObservationSubmitted() {
	m.observations.Inc()
}

// Failed учитывает ошибку на этапе stage (detect, render, store, archive).
func (m *Metrics) Failed(stage string) {
	m.errors.WithLabelValues(stage).Inc()
}

// Handler возвращает HTTP-обработчик для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Проверка реализации интерфейса
var _ port.Observer = (*Metrics)(nil)
