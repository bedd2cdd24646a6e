package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"safety-card-bot/internal/container"
	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
	"safety-card-bot/internal/infrastructure/metrics"
	"safety-card-bot/internal/infrastructure/report"
	"safety-card-bot/internal/infrastructure/storage"
	"safety-card-bot/internal/infrastructure/storage/sqlite"
)

type fakeDetector struct {
	labels []string
	err    error
}

func (d *fakeDetector) Detect(_ context.Context, _ []byte) (*entity.DetectionResult, error) {
	if d.err != nil {
		return nil, d.err
	}
	res := &entity.DetectionResult{ImageWidth: 640, ImageHeight: 480}
	for _, l := range d.labels {
		res.Detections = append(res.Detections, entity.Detection{Label: l, Confidence: 0.7})
	}
	return res, nil
}

func (d *fakeDetector) Annotate(image []byte, _ *entity.DetectionResult) ([]byte, error) {
	return image, nil
}

func (d *fakeDetector) Classes() []string { return d.labels }

func newTestServer(t *testing.T, detector *fakeDetector) http.Handler {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.Open(ctx, filepath.Join(dir, "observations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.NewMigrator(db).Up(ctx))

	m := metrics.New()
	services := container.New(container.Deps{
		Users:        storage.NewMemoryUserRepository(),
		Observations: sqlite.NewStore(db),
		Detector:     detector,
		Renderer:     report.NewPDFRenderer(filepath.Join(dir, "reports"), ""),
		Observer:     m,
	})

	return NewServer(services, m.Handler(), nil).Router()
}

func multipartBody(t *testing.T, fields map[string][]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "site.jpg")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postObservation(t *testing.T, h http.Handler, fields map[string][]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, image)
	req := httptest.NewRequest(http.MethodPost, "/api/observations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	h := newTestServer(t, &fakeDetector{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Catalog(t *testing.T) {
	h := newTestServer(t, &fakeDetector{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Categories []entity.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 6)
	require.Equal(t, entity.GroupHead, resp.Categories[0].Group)
}

func TestServer_ChecklistPreview(t *testing.T) {
	h := newTestServer(t, &fakeDetector{})

	req := httptest.NewRequest(http.MethodPost, "/api/checklist",
		strings.NewReader(`{"labels":["hairnet"],"sections":["Head","Hand"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp checklistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Checklist, 6)
	require.Equal(t, entity.StatusSafe, resp.Checklist[0].Status)
	require.Equal(t, entity.StatusNotApplicable, resp.Checklist[1].Status)
	require.Equal(t, entity.StatusUnsafe, resp.Checklist[3].Status)
	require.Contains(t, resp.Narrative.NearMisses, "Potential risk due to missing gloves")
}

func TestServer_ChecklistBadInput(t *testing.T) {
	h := newTestServer(t, &fakeDetector{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checklist", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checklist",
		strings.NewReader(`{"labels":[],"sections":["Knee"]}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreateGetAndDownload(t *testing.T) {
	h := newTestServer(t, &fakeDetector{labels: []string{"goggles", "shoes"}})

	rec := postObservation(t, h, map[string][]string{
		"sections":    {"Eyes", "Foot", "Body"},
		"date":        {"2024-05-01"},
		"time":        {"09:30 AM"},
		"location":    {"Dock 1"},
		"supervisor":  {"J. Doe"},
		"near_misses": {"Wet floor near the dock."},
	}, []byte("jpeg"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created entity.StoredObservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	obs := created.Observation
	require.NotEmpty(t, obs.ID)
	require.Equal(t, "/api/observations/"+obs.ID, rec.Header().Get("Location"))
	require.Equal(t, "Dock 1", obs.Location)
	require.Equal(t, entity.StatusSafe, obs.Checklist[1].Status)
	require.Equal(t, entity.StatusSafe, obs.Checklist[4].Status)
	require.Equal(t, entity.StatusUnsafe, obs.Checklist[5].Status)
	require.Equal(t, entity.StatusNotApplicable, obs.Checklist[0].Status)
	require.Equal(t, "Wet floor near the dock.", obs.Narrative.NearMisses)
	require.GreaterOrEqual(t, created.Report.Pages, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/observations/"+obs.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/observations/"+obs.ID+"/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/observations?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Observations []entity.StoredObservation `json:"observations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Observations, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "observations_total")
}

func TestServer_CreateWithEmptySections(t *testing.T) {
	h := newTestServer(t, &fakeDetector{labels: []string{"mask"}})

	rec := postObservation(t, h, map[string][]string{"sections": {""}}, []byte("jpeg"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created entity.StoredObservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	for _, e := range created.Observation.Checklist {
		require.Equal(t, entity.StatusNotApplicable, e.Status)
	}
	require.Equal(t, "Site A", created.Observation.Location)
}

func TestServer_CreateErrors(t *testing.T) {
	h := newTestServer(t, &fakeDetector{err: port.ErrDetectorUnavailable})

	rec := postObservation(t, h, nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postObservation(t, h, map[string][]string{"sections": {"Knee"}}, []byte("jpeg"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postObservation(t, h, nil, []byte("jpeg"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_NotFound(t *testing.T) {
	h := newTestServer(t, &fakeDetector{})

	for _, path := range []string{"/api/observations/obs_missing", "/api/observations/obs_missing/report"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/observations?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
