package passkeytest

import (
	"context"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/passkeys"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// RunRepoContract runs the shared checks against repos built by newRepo. The
// principals "p1" and "p2" must be acceptable owners.
func RunRepoContract(t *testing.T, newRepo func(t *testing.T) passkeys.Repo) {
	ctx := context.Background()
	newCredential := func(id, principalID string, createdAt time.Time) *passkeys.Credential {
		return &passkeys.Credential{
			ID:          id,
			PrincipalID: principalID,
			PublicKey:   []byte{0xa5, 0x01, 0x02},
			Counter:     5,
			DeviceType:  "platform",
			CreatedAt:   createdAt,
		}
	}

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newCredential("c1", "p1", baseTime)))

		got, err := repo.Get(ctx, "c1")
		require.NoError(t, err)
		require.Equal(t, "p1", got.PrincipalID)
		require.Equal(t, []byte{0xa5, 0x01, 0x02}, got.PublicKey)
		require.EqualValues(t, 5, got.Counter)
		require.Equal(t, "platform", got.DeviceType)
		require.Nil(t, got.LastUsedAt)

		_, err = repo.Get(ctx, "missing")
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newCredential("c1", "p1", baseTime)))
		err := repo.Create(ctx, newCredential("c1", "p2", baseTime))
		require.ErrorIs(t, err, autherrors.ErrAlreadyExists)
	})

	t.Run("list by principal", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newCredential("c2", "p1", baseTime.Add(time.Minute))))
		require.NoError(t, repo.Create(ctx, newCredential("c1", "p1", baseTime)))
		require.NoError(t, repo.Create(ctx, newCredential("c3", "p2", baseTime)))

		list, err := repo.ListByPrincipal(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "c1", list[0].ID)
		require.Equal(t, "c2", list[1].ID)
	})

	t.Run("counter compare and set", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newCredential("c1", "p1", baseTime)))

		usedAt := baseTime.Add(time.Hour)
		require.NoError(t, repo.UpdateCounter(ctx, "c1", 5, 6, usedAt))
		err := repo.UpdateCounter(ctx, "c1", 5, 7, usedAt)
		require.ErrorIs(t, err, autherrors.ErrConflict)

		got, err := repo.Get(ctx, "c1")
		require.NoError(t, err)
		require.EqualValues(t, 6, got.Counter)
		require.NotNil(t, got.LastUsedAt)
		require.True(t, usedAt.Equal(*got.LastUsedAt))
	})
}
