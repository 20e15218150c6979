package auth

import (
	"context"
	"testing"
	"time"

	"dealership/internal/config"
	"dealership/internal/models"
	"dealership/internal/repository"
	"dealership/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, admin config.AdminConfig) (*Service, *repository.MemorySessionRepository) {
	t.Helper()
	logger := zerolog.Nop()
	sessions := repository.NewMemorySessionRepository()
	svc := NewService(config.APIAuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, admin, sessions, &logger)
	return svc, sessions
}

func TestPasswords(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{})

	hash, err := svc.HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, IsHashed(hash))
	assert.True(t, svc.CheckPassword("s3cret", hash))
	assert.False(t, svc.CheckPassword("wrong", hash))

	assert.True(t, svc.CheckPassword("plain", "plain"), "legacy plaintext record")
	assert.False(t, svc.CheckPassword("plain", "other"))
	assert.False(t, svc.CheckPassword("", ""))
}

func TestAuthenticateAdmin(t *testing.T) {
	t.Run("PlainPassword", func(t *testing.T) {
		svc, _ := newTestService(t, config.AdminConfig{ID: 1, Username: "admin", Password: "admin123"})

		p, err := svc.AuthenticateAdmin("Admin", "admin123")
		require.NoError(t, err)
		assert.True(t, p.IsAdmin())
		assert.Equal(t, int64(1), p.SubjectID)

		_, err = svc.AuthenticateAdmin("admin", "nope")
		assert.ErrorIs(t, err, store.ErrInvalidCredentials)
		_, err = svc.AuthenticateAdmin("root", "admin123")
		assert.ErrorIs(t, err, store.ErrInvalidCredentials)
	})

	t.Run("HashTakesPriority", func(t *testing.T) {
		hasher, _ := newTestService(t, config.AdminConfig{})
		hash, err := hasher.HashPassword("strong")
		require.NoError(t, err)

		svc, _ := newTestService(t, config.AdminConfig{ID: 2, Username: "boss", Password: "admin123", PasswordHash: hash})
		_, err = svc.AuthenticateAdmin("boss", "admin123")
		assert.ErrorIs(t, err, store.ErrInvalidCredentials)

		p, err := svc.AuthenticateAdmin("boss", "strong")
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.SubjectID)
	})
}

func TestTokenLifecycle(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{})
	ctx := context.Background()
	principal := models.Principal{Role: models.RoleCustomer, SubjectID: 42, Username: "alice"}

	token, session, err := svc.IssueToken(ctx, principal)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, int64(42), session.SubjectID)

	got, sid, err := svc.ValidateToken(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
	assert.Equal(t, session.ID, sid)

	require.NoError(t, svc.Revoke(ctx, sid))
	_, _, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{})
	ctx := context.Background()

	t.Run("Garbage", func(t *testing.T) {
		_, _, err := svc.ValidateToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewService(config.APIAuthConfig{JWTSecret: "other"}, config.AdminConfig{}, nil, svc.logger)
		token, _, err := other.IssueToken(ctx, models.Principal{Role: models.RoleAdmin, SubjectID: 1})
		require.NoError(t, err)

		_, _, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		token, _, err := svc.IssueToken(ctx, models.Principal{Role: models.RoleAdmin, SubjectID: 1})
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, _, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": 1, "role": "superuser", "sid": "x", "exp": time.Now().Add(time.Hour).Unix()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.jwtSecret)
		require.NoError(t, err)

		_, _, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestIssueToken_NoSecret(t *testing.T) {
	logger := zerolog.Nop()
	svc := NewService(config.APIAuthConfig{}, config.AdminConfig{}, nil, &logger)
	_, _, err := svc.IssueToken(context.Background(), models.Principal{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestAllowLogin(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{})
	ctx := context.Background()

	for i := 0; i < models.LoginAttemptsLimit; i++ {
		require.NoError(t, svc.AllowLogin(ctx, "Alice"))
	}
	assert.ErrorIs(t, svc.AllowLogin(ctx, "alice"), ErrTooManyLogins)
	assert.NoError(t, svc.AllowLogin(ctx, "bob"))
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		_, err := ExtractTokenFromHeader(h)
		assert.ErrorIs(t, err, ErrInvalidToken, h)
	}
}
