package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dealership/internal/models"
	"dealership/internal/service"
	"dealership/internal/store"

	"github.com/gorilla/mux"
)

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, raw, store.ErrInvalidInput)
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Auth

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type tokenResponse struct {
	Token     string           `json:"token"`
	ExpiresAt string           `json:"expires_at"`
	Principal models.Principal `json:"principal"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	customer, err := s.deps.Customers.Register(r.Context(), body.Username, body.Password, body.Phone)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleCustomerLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, func(body credentials) (models.Principal, error) {
		c, err := s.deps.Customers.Authenticate(r.Context(), body.Username, body.Password)
		if err != nil {
			return models.Principal{}, err
		}
		return models.Principal{Role: models.RoleCustomer, SubjectID: c.ID, Username: c.Username}, nil
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, func(body credentials) (models.Principal, error) {
		return s.auth.AuthenticateAdmin(body.Username, body.Password)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, check func(credentials) (models.Principal, error)) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.auth.AllowLogin(r.Context(), body.Username); err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := check(body)
	if err != nil {
		s.logger.Warn().Str("username", body.Username).Msg("Failed login attempt")
		s.fail(w, r, err)
		return
	}

	token, session, err := s.auth.IssueToken(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt.Format(models.TimeLayout),
		Principal: p,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Revoke(r.Context(), sessionFrom(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Catalogue

func parseCarFilter(q url.Values) (models.CarFilter, error) {
	f := models.CarFilter{Make: q.Get("make"), Model: q.Get("model")}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("year %q: %w", v, store.ErrInvalidInput)
		}
		f.Year = year
	}
	for key, dst := range map[string]**float64{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if v := q.Get(key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return f, fmt.Errorf("%s %q: %w", key, v, store.ErrInvalidInput)
			}
			*dst = &n
		}
	}
	for key, dst := range map[string]**bool{"installment": &f.Installment, "available": &f.Available} {
		if v := q.Get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return f, fmt.Errorf("%s %q: %w", key, v, store.ErrInvalidInput)
			}
			*dst = &b
		}
	}
	return f, nil
}

func (s *Server) handleSearchCars(w http.ResponseWriter, r *http.Request) {
	f, err := parseCarFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": nonNil(s.deps.Customers.SearchCars(f))})
}

func (s *Server) handleCarDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	car, err := s.deps.Customers.CarDetails(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func locationFilter(q url.Values) models.LocationFilter {
	return models.LocationFilter{Name: q.Get("name"), Location: q.Get("location")}
}

func (s *Server) handleShowrooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"showrooms": nonNil(s.deps.Customers.SearchShowrooms(locationFilter(r.URL.Query())))})
}

func (s *Server) handleCarsInShowroom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cars, err := s.deps.Customers.CarsInShowroom(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": nonNil(cars)})
}

func (s *Server) handleGarages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"garages": nonNil(s.deps.Customers.SearchGarages(locationFilter(r.URL.Query())))})
}

func (s *Server) handleServicesInGarage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	services, err := s.deps.Customers.ServicesInGarage(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": nonNil(services)})
}

func (s *Server) handleSearchServices(w http.ResponseWriter, r *http.Request) {
	f := service.ServiceFilter{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
	if v := r.URL.Query().Get("max_price"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.fail(w, r, fmt.Errorf("max_price %q: %w", v, store.ErrInvalidInput))
			return
		}
		f.MaxPrice = &n
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": nonNil(s.deps.Customers.SearchServices(f))})
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
