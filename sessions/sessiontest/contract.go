// Package sessiontest holds behaviour checks every sessions.Repo must pass.
package sessiontest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// NewRecord builds a record expiring ttl after baseTime.
func NewRecord(principalID, deviceID string, ttl time.Duration) *sessions.Record {
	return &sessions.Record{
		ID:          uuid.New().String(),
		PrincipalID: principalID,
		DeviceID:    deviceID,
		Token:       "tok-" + uuid.New().String(),
		KycLevel:    "basic",
		ExpiresAt:   baseTime.Add(ttl),
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

// RunRepoContract runs the shared checks against repos built by newRepo. The
// principals "p1" and "p2" must be acceptable owners.
func RunRepoContract(t *testing.T, newRepo func(t *testing.T) sessions.Repo) {
	ctx := context.Background()

	t.Run("find returns live record", func(t *testing.T) {
		repo := newRepo(t)
		rec := NewRecord("p1", "phone", time.Hour)
		require.NoError(t, repo.Upsert(ctx, rec))

		got, err := repo.FindByToken(ctx, rec.Token, baseTime.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, rec.ID, got.ID)
		require.Equal(t, "p1", got.PrincipalID)
		require.Equal(t, "phone", got.DeviceID)
		require.Equal(t, "basic", got.KycLevel)
		require.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("find filters expiry", func(t *testing.T) {
		repo := newRepo(t)
		rec := NewRecord("p1", "phone", time.Hour)
		require.NoError(t, repo.Upsert(ctx, rec))

		_, err := repo.FindByToken(ctx, rec.Token, baseTime.Add(time.Hour))
		require.ErrorIs(t, err, autherrors.ErrNotFound)
		_, err = repo.FindByToken(ctx, "unknown", baseTime)
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})

	t.Run("blank device uses default", func(t *testing.T) {
		repo := newRepo(t)
		rec := NewRecord("p1", "  ", time.Hour)
		require.NoError(t, repo.Upsert(ctx, rec))

		got, err := repo.FindByToken(ctx, rec.Token, baseTime)
		require.NoError(t, err)
		require.Equal(t, sessions.DefaultDeviceID, got.DeviceID)
	})

	t.Run("upsert replaces same device keeping identity", func(t *testing.T) {
		repo := newRepo(t)
		first := NewRecord("p1", "phone", time.Hour)
		require.NoError(t, repo.Upsert(ctx, first))

		second := NewRecord("p1", "phone", 2*time.Hour)
		second.CreatedAt = baseTime.Add(30 * time.Minute)
		second.UpdatedAt = second.CreatedAt
		second.KycLevel = "enhanced"
		require.NoError(t, repo.Upsert(ctx, second))
		require.Equal(t, first.ID, second.ID)
		require.True(t, first.CreatedAt.Equal(second.CreatedAt))

		_, err := repo.FindByToken(ctx, first.Token, baseTime)
		require.ErrorIs(t, err, autherrors.ErrNotFound)

		got, err := repo.FindByToken(ctx, second.Token, baseTime)
		require.NoError(t, err)
		require.Equal(t, "enhanced", got.KycLevel)
		require.True(t, baseTime.Equal(got.CreatedAt))
		require.True(t, baseTime.Add(30*time.Minute).Equal(got.UpdatedAt))
	})

	t.Run("devices coexist and delete is per token", func(t *testing.T) {
		repo := newRepo(t)
		phone := NewRecord("p1", "phone", time.Hour)
		laptop := NewRecord("p1", "laptop", time.Hour)
		laptop.CreatedAt = baseTime.Add(time.Second)
		require.NoError(t, repo.Upsert(ctx, phone))
		require.NoError(t, repo.Upsert(ctx, laptop))

		live, err := repo.ListByPrincipal(ctx, "p1", baseTime)
		require.NoError(t, err)
		require.Len(t, live, 2)
		require.Equal(t, "phone", live[0].DeviceID)

		n, err := repo.DeleteByToken(ctx, phone.Token)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		n, err = repo.DeleteByToken(ctx, phone.Token)
		require.NoError(t, err)
		require.EqualValues(t, 0, n)

		_, err = repo.FindByToken(ctx, laptop.Token, baseTime)
		require.NoError(t, err)
	})

	t.Run("revoke all is scoped and idempotent", func(t *testing.T) {
		repo := newRepo(t)
		mine := []*sessions.Record{NewRecord("p1", "phone", time.Hour), NewRecord("p1", "laptop", time.Hour)}
		other := NewRecord("p2", "phone", time.Hour)
		for _, r := range append(mine, other) {
			require.NoError(t, repo.Upsert(ctx, r))
		}

		n, err := repo.RevokeAll(ctx, "p1")
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
		n, err = repo.RevokeAll(ctx, "p1")
		require.NoError(t, err)
		require.EqualValues(t, 0, n)

		for _, r := range mine {
			_, err := repo.FindByToken(ctx, r.Token, baseTime)
			require.ErrorIs(t, err, autherrors.ErrNotFound)
		}
		_, err = repo.FindByToken(ctx, other.Token, baseTime)
		require.NoError(t, err)
	})

	t.Run("sweep removes only expired", func(t *testing.T) {
		repo := newRepo(t)
		short := NewRecord("p1", "phone", time.Minute)
		long := NewRecord("p1", "laptop", time.Hour)
		require.NoError(t, repo.Upsert(ctx, short))
		require.NoError(t, repo.Upsert(ctx, long))

		n, err := repo.SweepExpired(ctx, baseTime.Add(time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		n, err = repo.SweepExpired(ctx, baseTime.Add(time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 0, n)

		live, err := repo.ListByPrincipal(ctx, "p1", baseTime)
		require.NoError(t, err)
		require.Len(t, live, 1)
		require.Equal(t, long.Token, live[0].Token)
	})
}
