package repository

import (
	"context"
	"testing"
	"time"

	"dealership/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	t.Run("SaveAndGetSession", func(t *testing.T) {
		session := &models.Session{
			ID:        "sess-1",
			Role:      models.RoleCustomer,
			SubjectID: 7,
			Username:  "alice",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
			ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		}

		require.NoError(t, repo.SaveSession(ctx, session))

		got, err := repo.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.Username, got.Username)
		assert.Equal(t, models.RoleCustomer, got.Role)
		assert.Equal(t, int64(7), got.SubjectID)

		ttl := s.TTL(sessionKeyPrefix + "sess-1")
		assert.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("SessionExpires", func(t *testing.T) {
		session := &models.Session{ID: "sess-2", ExpiresAt: time.Now().Add(time.Minute)}
		require.NoError(t, repo.SaveSession(ctx, session))

		s.FastForward(2 * time.Minute)

		got, err := repo.GetSession(ctx, "sess-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SaveAlreadyExpired", func(t *testing.T) {
		session := &models.Session{ID: "sess-old", ExpiresAt: time.Now().Add(-time.Minute)}
		require.NoError(t, repo.SaveSession(ctx, session))
		assert.False(t, s.Exists(sessionKeyPrefix+"sess-old"))
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteSession", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{ID: "sess-3"}))
		require.NoError(t, repo.DeleteSession(ctx, "sess-3"))

		got, _ := repo.GetSession(ctx, "sess-3")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "login:alice"
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		// Third request (exceeds limit)
		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionRepository(nil)
		_, err := repo.GetSession(ctx, "x")
		assert.ErrorIs(t, err, errNilClient)
		assert.ErrorIs(t, repo.SaveSession(ctx, &models.Session{ID: "x"}), errNilClient)
		_, err = repo.CheckRateLimit(ctx, "x", 1, time.Second)
		assert.ErrorIs(t, err, errNilClient)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("PingDown", func(t *testing.T) {
		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		defer down.Close()
		assert.Error(t, Ping(ctx, down))
	})
}
