package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "safety-card-bot/internal/application"
	"safety-card-bot/internal/container"
	"safety-card-bot/internal/domain/checklist"
	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

const maxUploadBytes = 16 << 20

// Server HTTP API над сервисами наблюдений.
type Server struct {
	observations *app.ObservationService
	metrics      http.Handler
	log          *slog.Logger
}

// NewServer собирает API; metrics может быть nil, тогда /metrics не публикуется.
func NewServer(services *container.Container, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		observations: services.ObservationService,
		metrics:      metrics,
		log:          logger.With("component", "http"),
	}
}

// Router возвращает маршруты API.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/api/catalog", s.catalogHandler).Methods("GET")
	r.HandleFunc("/api/checklist", s.checklistHandler).Methods("POST")
	r.HandleFunc("/api/observations", s.listObservationsHandler).Methods("GET")
	r.HandleFunc("/api/observations", s.createObservationHandler).Methods("POST")
	r.HandleFunc("/api/observations/{id}", s.getObservationHandler).Methods("GET")
	r.HandleFunc("/api/observations/{id}/report", s.reportHandler).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods("GET")
	}

	r.Use(s.logRequests)
	return r
}

// NewHTTPServer оборачивает Router в http.Server с таймаутами.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.observations.Catalog().Categories(),
	})
}

type checklistRequest struct {
	Labels   []string `json:"labels"`
	Sections []string `json:"sections"`
}

type checklistResponse struct {
	Checklist []entity.ChecklistEntry `json:"checklist"`
	Narrative entity.Narrative        `json:"narrative"`
}

func (s *Server) checklistHandler(w http.ResponseWriter, r *http.Request) {
	var req checklistRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	entries, narrative, err := s.observations.Preview(req.Labels, req.Sections)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checklistResponse{Checklist: entries, Narrative: narrative})
}

func (s *Server) createObservationHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read image")
		return
	}

	in := app.CreateInput{
		Image: image,
		SubmitInput: app.SubmitInput{
			Date:       r.FormValue("date"),
			Time:       r.FormValue("time"),
			Location:   r.FormValue("location"),
			Supervisor: r.FormValue("supervisor"),
			Override: app.NarrativeOverride{
				Description:        r.FormValue("description"),
				Interventions:      r.FormValue("interventions"),
				PositiveBehaviours: r.FormValue("positive_behaviours"),
				NearMisses:         r.FormValue("near_misses"),
			},
		},
	}
	// без поля sections проверяются все разделы, пустое поле означает "ни одного"
	if values, ok := r.MultipartForm.Value["sections"]; ok {
		in.Sections = append([]string{}, values...)
	}

	stored, err := s.observations.Create(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Location", "/api/observations/"+stored.Observation.ID)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) listObservationsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := s.observations.List(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"observations": list})
}

func (s *Server) getObservationHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	stored, err := s.observations.Get(r.Context(), vars["id"])
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	path, err := s.observations.ReportPath(r.Context(), vars["id"])
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// fail переводит ошибку сервиса в HTTP-статус.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checklist.ErrUnknownGroup), errors.Is(err, app.ErrEmptyImage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, port.ErrNotFound):
		writeError(w, http.StatusNotFound, "observation not found")
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "report file not found")
	case errors.Is(err, app.ErrDetectorNotConfigured), errors.Is(err, port.ErrDetectorUnavailable):
		writeError(w, http.StatusServiceUnavailable, "detector unavailable")
	default:
		s.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(started))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
