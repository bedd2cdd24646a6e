package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

const defaultListLimit = 50

// Store хранит записи наблюдений в SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save записывает наблюдение и данные об отчёте одной строкой.
func (s *Store) Save(ctx context.Context, stored entity.StoredObservation) error {
	obs := stored.Observation
	if obs.ID == "" {
		return errors.New("observation id is required")
	}

	checklistJSON, err := json.Marshal(obs.Checklist)
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	narrativeJSON, err := json.Marshal(obs.Narrative)
	if err != nil {
		return fmt.Errorf("marshal narrative: %w", err)
	}
	labels := obs.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}

	createdAt := obs.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO observations(
			observation_id, obs_date, obs_time, location, supervisor,
			checklist_json, narrative_json, labels_json,
			report_path, report_sha256, report_pages, archive_uri, created_at
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		obs.ID, obs.Date, obs.Time, obs.Location, obs.Supervisor,
		string(checklistJSON), string(narrativeJSON), string(labelsJSON),
		stored.Report.Path, stored.Report.SHA256, stored.Report.Pages, stored.Report.ArchiveURI,
		createdAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

const selectColumns = `
	observation_id, obs_date, obs_time, location, supervisor,
	checklist_json, narrative_json, labels_json,
	report_path, report_sha256, report_pages, archive_uri, created_at
`

// Get возвращает запись по ID.
func (s *Store) Get(ctx context.Context, id string) (*entity.StoredObservation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM observations WHERE observation_id = ? LIMIT 1`, id)
	stored, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("query observation %s: %w", id, err)
	}
	return stored, nil
}

// List возвращает последние записи, новые первыми.
func (s *Store) List(ctx context.Context, limit int) ([]entity.StoredObservation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM observations
		ORDER BY created_at DESC, observation_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	out := []entity.StoredObservation{}
	for rows.Next() {
		stored, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, *stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (*entity.StoredObservation, error) {
	var (
		stored                                   entity.StoredObservation
		checklistJSON, narrativeJSON, labelsJSON string
		createdAt                                int64
	)
	obs := &stored.Observation
	err := row.Scan(
		&obs.ID, &obs.Date, &obs.Time, &obs.Location, &obs.Supervisor,
		&checklistJSON, &narrativeJSON, &labelsJSON,
		&stored.Report.Path, &stored.Report.SHA256, &stored.Report.Pages, &stored.Report.ArchiveURI,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(checklistJSON), &obs.Checklist); err != nil {
		return nil, fmt.Errorf("decode checklist: %w", err)
	}
	if err := json.Unmarshal([]byte(narrativeJSON), &obs.Narrative); err != nil {
		return nil, fmt.Errorf("decode narrative: %w", err)
	}
	if err := json.Unmarshal([]byte(labelsJSON), &obs.Labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	obs.CreatedAt = time.UnixMilli(createdAt)

	return &stored, nil
}

// Проверка реализации интерфейса
var _ port.ObservationRepository = (*Store)(nil)
