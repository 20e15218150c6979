package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dealership/internal/config"
	"dealership/internal/metrics"
	"dealership/internal/models"
	"dealership/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Authenticator issues and checks API tokens.
type Authenticator interface {
	AuthenticateAdmin(username, password string) (models.Principal, error)
	AllowLogin(ctx context.Context, username string) error
	IssueToken(ctx context.Context, p models.Principal) (string, *models.Session, error)
	ValidateToken(ctx context.Context, token string) (models.Principal, string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type ReportExporter interface {
	Export(stats models.Statistics, buyRent []models.BuyRentProcess, services []models.ServiceProcess) (string, error)
}

// Deps are the services the handlers call into.
type Deps struct {
	Transactions *service.TransactionService
	Inventory    *service.InventoryService
	Customers    *service.CustomerService
	Reports      *service.ReportService
	Auth         Authenticator
	Exporter     ReportExporter
	// Ready reports storage health for /healthz; nil means always healthy.
	Ready func(ctx context.Context) error
	// ServeMetrics mounts /metrics on the API router.
	ServeMetrics bool
}

// Server exposes the dealership over HTTP/JSON.
type Server struct {
	cfg     config.APIConfig
	deps    Deps
	auth    Authenticator
	limiter *rateLimiter
	router  *mux.Router
	server  *http.Server
	logger  *zerolog.Logger
}

func NewServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		auth:    deps.Auth,
		limiter: newRateLimiter(cfg.RateLimit),
		router:  mux.NewRouter(),
		logger:  logger,
	}
	s.routes()

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger}),
		handlers.PrintRecoveryStack(false),
	)(s.router)
	handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.loggingMiddleware, s.limiter.middleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.deps.ServeMetrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	v1.HandleFunc("/auth/login", s.handleCustomerLogin).Methods(http.MethodPost)
	v1.HandleFunc("/auth/admin/login", s.handleAdminLogin).Methods(http.MethodPost)

	v1.HandleFunc("/cars", s.handleSearchCars).Methods(http.MethodGet)
	v1.HandleFunc("/cars/{id:[0-9]+}", s.handleCarDetails).Methods(http.MethodGet)
	v1.HandleFunc("/showrooms", s.handleShowrooms).Methods(http.MethodGet)
	v1.HandleFunc("/showrooms/{id:[0-9]+}/cars", s.handleCarsInShowroom).Methods(http.MethodGet)
	v1.HandleFunc("/garages", s.handleGarages).Methods(http.MethodGet)
	v1.HandleFunc("/garages/{id:[0-9]+}/services", s.handleServicesInGarage).Methods(http.MethodGet)
	v1.HandleFunc("/services", s.handleSearchServices).Methods(http.MethodGet)

	v1.Handle("/auth/logout", s.authenticate(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)

	me := v1.PathPrefix("/me").Subrouter()
	me.Use(s.authenticate, requireRole(models.RoleCustomer))
	me.HandleFunc("/cars/{id:[0-9]+}/buy", s.handleBuy).Methods(http.MethodPost)
	me.HandleFunc("/cars/{id:[0-9]+}/rent", s.handleRent).Methods(http.MethodPost)
	me.HandleFunc("/cars/{id:[0-9]+}/reserve", s.handleReserve).Methods(http.MethodPost)
	me.HandleFunc("/reservations", s.handleMyReservations).Methods(http.MethodGet)
	me.HandleFunc("/reservations/{id:[0-9]+}", s.handleCancelReservation).Methods(http.MethodDelete)
	me.HandleFunc("/service-requests", s.handleBookService).Methods(http.MethodPost)
	me.HandleFunc("/service-requests", s.handleMyServiceRequests).Methods(http.MethodGet)
	me.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(s.authenticate, requireRole(models.RoleAdmin))
	admin.HandleFunc("/cars", s.handleAllCars).Methods(http.MethodGet)
	admin.HandleFunc("/cars", s.handleAddCar).Methods(http.MethodPost)
	admin.HandleFunc("/cars/{id:[0-9]+}", s.handleUpdateCar).Methods(http.MethodPatch)
	admin.HandleFunc("/cars/{id:[0-9]+}", s.handleDeleteCar).Methods(http.MethodDelete)
	admin.HandleFunc("/customers", s.handleCustomers).Methods(http.MethodGet)
	admin.HandleFunc("/customers/{id:[0-9]+}", s.handleCustomerSummary).Methods(http.MethodGet)
	admin.HandleFunc("/customers/{id:[0-9]+}", s.handleDeleteCustomer).Methods(http.MethodDelete)
	admin.HandleFunc("/showrooms", s.handleAddShowroom).Methods(http.MethodPost)
	admin.HandleFunc("/showrooms/{id:[0-9]+}", s.handleUpdateShowroom).Methods(http.MethodPatch)
	admin.HandleFunc("/showrooms/{id:[0-9]+}", s.handleDeleteShowroom).Methods(http.MethodDelete)
	admin.HandleFunc("/garages", s.handleAddGarage).Methods(http.MethodPost)
	admin.HandleFunc("/garages/{id:[0-9]+}", s.handleUpdateGarage).Methods(http.MethodPatch)
	admin.HandleFunc("/garages/{id:[0-9]+}", s.handleDeleteGarage).Methods(http.MethodDelete)
	admin.HandleFunc("/garages/{id:[0-9]+}/services/{serviceID:[0-9]+}", s.handleAttachService).Methods(http.MethodPut)
	admin.HandleFunc("/garages/{id:[0-9]+}/services/{serviceID:[0-9]+}", s.handleDetachService).Methods(http.MethodDelete)
	admin.HandleFunc("/services", s.handleAddService).Methods(http.MethodPost)
	admin.HandleFunc("/services/{id:[0-9]+}", s.handleUpdateService).Methods(http.MethodPatch)
	admin.HandleFunc("/services/{id:[0-9]+}", s.handleDeleteService).Methods(http.MethodDelete)
	admin.HandleFunc("/reservations", s.handleAllReservations).Methods(http.MethodGet)
	admin.HandleFunc("/reservations/sweep", s.handleSweep).Methods(http.MethodPost)
	admin.HandleFunc("/service-requests", s.handleQueue).Methods(http.MethodGet)
	admin.HandleFunc("/service-requests/next", s.handleNextRequest).Methods(http.MethodGet)
	admin.HandleFunc("/service-requests/process", s.handleProcessNext).Methods(http.MethodPost)
	admin.HandleFunc("/actions", s.handleActions).Methods(http.MethodGet)
	admin.HandleFunc("/actions", s.handleClearActions).Methods(http.MethodDelete)
	admin.HandleFunc("/actions/top", s.handleTopAction).Methods(http.MethodGet)
	admin.HandleFunc("/actions/undo", s.handleUndo).Methods(http.MethodPost)
	admin.HandleFunc("/statistics", s.handleStatistics).Methods(http.MethodGet)
	admin.HandleFunc("/export", s.handleExport).Methods(http.MethodPost)
	admin.HandleFunc("/save", s.handleSave).Methods(http.MethodPost)
}

// Handler is the full middleware chain, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type recoveryLogger struct {
	logger *zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Str("panic", fmt.Sprint(v...)).Msg("Recovered from panic in HTTP handler")
}
