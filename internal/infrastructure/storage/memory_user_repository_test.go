package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"safety-card-bot/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesAndCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, u.State)

	// Изменение без Save не должно попадать в хранилище.
	u.Location = "Line 3"
	u.Sections[0] = entity.GroupFoot

	again, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Empty(t, again.Location)
	require.Equal(t, entity.GroupHead, again.Sections[0])
}

func TestMemoryUserRepository_SaveAndUpdateState(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	u.Supervisor = "J. Doe"
	require.NoError(t, repo.Save(ctx, u))

	require.NoError(t, repo.UpdateState(ctx, 2, entity.StateAwaitingPhoto))
	require.NoError(t, repo.UpdateState(ctx, 99, entity.StateAwaitingPhoto))

	got, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, "J. Doe", got.Supervisor)
	require.Equal(t, entity.StateAwaitingPhoto, got.State)
}
