package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealership/internal/config"
	"dealership/internal/domain"
	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrSessionRevoked = errors.New("session revoked")
	ErrTooManyLogins  = errors.New("too many login attempts")
	ErrNoSecret       = errors.New("jwt secret is not configured")
)

// Service handles password hashing, admin login and API tokens.
type Service struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	admin     config.AdminConfig
	sessions  domain.SessionRepository
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewService(cfg config.APIAuthConfig, admin config.AdminConfig, sessions domain.SessionRepository, logger *zerolog.Logger) *Service {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = models.DefaultSessionTTL
	}
	return &Service{
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		admin:     admin,
		sessions:  sessions,
		logger:    logger,
		now:       time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks a password against a bcrypt hash. Records imported
// from older data files carry the password itself, which is compared in
// constant time.
func (s *Service) CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	if !IsHashed(hash) {
		return subtle.ConstantTimeCompare([]byte(password), []byte(hash)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsHashed reports whether the stored value is a bcrypt hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}

// AuthenticateAdmin checks the configured admin account.
func (s *Service) AuthenticateAdmin(username, password string) (models.Principal, error) {
	if !strings.EqualFold(strings.TrimSpace(username), s.admin.Username) {
		return models.Principal{}, store.ErrInvalidCredentials
	}

	stored := s.admin.PasswordHash
	if stored == "" {
		stored = s.admin.Password
	}
	if !s.CheckPassword(password, stored) {
		return models.Principal{}, store.ErrInvalidCredentials
	}

	return models.Principal{Role: models.RoleAdmin, SubjectID: s.admin.ID, Username: s.admin.Username}, nil
}

// AllowLogin counts a login attempt for the username.
func (s *Service) AllowLogin(ctx context.Context, username string) error {
	if s.sessions == nil {
		return nil
	}
	key := "login:" + strings.ToLower(strings.TrimSpace(username))
	allowed, err := s.sessions.CheckRateLimit(ctx, key, models.LoginAttemptsLimit, models.LoginAttemptsWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("Login rate limit check failed")
		return nil
	}
	if !allowed {
		return ErrTooManyLogins
	}
	return nil
}

// IssueToken opens a session for the principal and signs a token for it.
func (s *Service) IssueToken(ctx context.Context, p models.Principal) (string, *models.Session, error) {
	if len(s.jwtSecret) == 0 {
		return "", nil, ErrNoSecret
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Role:      p.Role,
		SubjectID: p.SubjectID,
		Username:  p.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	claims := jwt.MapClaims{
		"sub":      p.SubjectID,
		"username": p.Username,
		"role":     string(p.Role),
		"sid":      session.ID,
		"exp":      session.ExpiresAt.Unix(),
		"iat":      now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	if s.sessions != nil {
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return "", nil, fmt.Errorf("save session: %w", err)
		}
	}

	s.logger.Info().Str("username", p.Username).Str("role", string(p.Role)).Msg("Session opened")
	return token, session, nil
}

// ValidateToken verifies the signature and that the session is still open.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (models.Principal, string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, "", ErrExpiredToken
		}
		return models.Principal{}, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Principal{}, "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return models.Principal{}, "", ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	sid, _ := claims["sid"].(string)
	if sid == "" || (role != string(models.RoleAdmin) && role != string(models.RoleCustomer)) {
		return models.Principal{}, "", ErrInvalidToken
	}

	if s.sessions != nil {
		session, err := s.sessions.GetSession(ctx, sid)
		if err != nil {
			return models.Principal{}, "", fmt.Errorf("get session: %w", err)
		}
		if session == nil {
			return models.Principal{}, "", ErrSessionRevoked
		}
	}

	return models.Principal{Role: models.Role(role), SubjectID: int64(sub), Username: username}, sid, nil
}

// Revoke closes the session so its token stops validating.
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.DeleteSession(ctx, sessionID)
}

// ExtractTokenFromHeader extracts token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}
