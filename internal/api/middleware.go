package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dealership/internal/auth"
	"dealership/internal/metrics"
	"dealership/internal/models"

	"github.com/gorilla/mux"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	sessionKey
)

func principalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

func sessionFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey).(string)
	return sid
}

// authenticate requires a valid bearer token and stores the caller in the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		p, sid, err := s.auth.ValidateToken(r.Context(), token)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if p.Role == models.RoleCustomer && !s.customerExists(p) {
			if err := s.auth.Revoke(r.Context(), sid); err != nil {
				s.logger.Warn().Err(err).Str("session_id", sid).Msg("Revoke session of deleted customer")
			}
			s.fail(w, r, auth.ErrSessionRevoked)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, p)
		ctx = context.WithValue(ctx, sessionKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// customerExists reports whether the token's account is still the one it was
// issued for.
func (s *Server) customerExists(p models.Principal) bool {
	c, err := s.deps.Customers.Customer(p.SubjectID)
	return err == nil && strings.EqualFold(c.Username, p.Username)
}

// requireRole must run after authenticate.
func requireRole(role models.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if p.Role != role {
				writeError(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs every request and counts it by route template.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.IncHTTP(route, strconv.Itoa(recorder.status))

		s.logger.Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
