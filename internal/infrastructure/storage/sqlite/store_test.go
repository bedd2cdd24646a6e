package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"safety-card-bot/internal/domain/checklist"
	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "observations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := NewMigrator(db)
	require.NoError(t, m.Up(ctx))
	// повторный запуск миграций не должен падать
	require.NoError(t, m.Up(ctx))

	return NewStore(db)
}

func testObservation(id string, created time.Time) entity.StoredObservation {
	entries := checklist.BuildChecklist([]string{"hairnet"}, []entity.Group{entity.GroupHead, entity.GroupHand})
	obs := checklist.AssembleRecord("2024-05-01", "09:30 AM", "Site A", entries, checklist.BuildNarrative(entries), "J. Doe")
	obs.ID = id
	obs.Labels = []string{"hairnet", "person"}
	obs.CreatedAt = created
	return entity.StoredObservation{
		Observation: obs,
		Report:      entity.Report{Path: "/tmp/" + id + ".pdf", SHA256: "abc", Pages: 1},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := testObservation("obs_1", time.UnixMilli(1714555800000))
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, "obs_1")
	require.NoError(t, err)
	require.Equal(t, want.Observation.Checklist, got.Observation.Checklist)
	require.Equal(t, want.Observation.Narrative, got.Observation.Narrative)
	require.Equal(t, want.Observation.Labels, got.Observation.Labels)
	require.Equal(t, want.Report, got.Report)
	require.Equal(t, "Site A", got.Observation.Location)
	require.Equal(t, "J. Doe", got.Observation.Supervisor)
	require.Equal(t, int64(1714555800000), got.Observation.CreatedAt.UnixMilli())
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, port.ErrNotFound)
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(context.Background(), testObservation("", time.Now()))
	require.Error(t, err)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1714555800000)

	require.NoError(t, store.Save(ctx, testObservation("obs_a", base)))
	require.NoError(t, store.Save(ctx, testObservation("obs_b", base.Add(time.Minute))))
	require.NoError(t, store.Save(ctx, testObservation("obs_c", base.Add(2*time.Minute))))

	list, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "obs_c", list[0].Observation.ID)
	require.Equal(t, "obs_b", list[1].Observation.ID)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}
