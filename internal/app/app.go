package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"dealership/internal/auth"
	"dealership/internal/backup"
	"dealership/internal/config"
	"dealership/internal/csvstore"
	"dealership/internal/database"
	"dealership/internal/domain"
	"dealership/internal/events"
	"dealership/internal/export"
	"dealership/internal/logging"
	"dealership/internal/metrics"
	"dealership/internal/notify"
	"dealership/internal/repository"
	"dealership/internal/seed"
	"dealership/internal/service"
	"dealership/internal/store"
	"dealership/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds the wired services shared by the console and the API binaries.
type App struct {
	Config *config.Config
	Logger *zerolog.Logger

	Store        *store.Store
	Auth         *auth.Service
	Transactions *service.TransactionService
	Inventory    *service.InventoryService
	Customers    *service.CustomerService
	Reports      *service.ReportService
	Exporter     *export.Exporter
	Scheduler    *worker.Scheduler

	persister domain.Persister
	redis     *redis.Client
}

// LoadConfigAndLogger reads CONFIG_PATH (configs/config.yaml by default) and
// builds the root logger tagged with component.
func LoadConfigAndLogger(component string) (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, component), closer, nil
}

// New opens storage, loads it, applies the seed file to an empty store and
// wires every service.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	persister, err := openPersister(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	a.persister = persister

	a.Store = store.New(persister,
		store.WithLogger(logging.Component(logger, "store")),
		store.WithRetryPolicy(worker.RetryPolicy{
			MaxRetries:    cfg.Storage.Retry.MaxRetries,
			InitialDelay:  cfg.Storage.Retry.InitialDelay,
			MaxDelay:      cfg.Storage.Retry.MaxDelay,
			BackoffFactor: 2,
		}),
	)
	if err := a.Store.Load(ctx); err != nil {
		_ = persister.Close()
		return nil, fmt.Errorf("load records: %w", err)
	}

	a.Auth = auth.NewService(cfg.API.Auth, cfg.Admin, a.sessions(ctx), logging.Component(logger, "auth"))

	if err := a.applySeed(ctx); err != nil {
		a.Close()
		return nil, err
	}

	bus := events.NewEventBus()
	subscribeEventLog(bus, logging.Component(logger, "events"))

	var notifier domain.Notifier
	if cfg.Telegram.BotToken != "" {
		tn, err := notify.NewTelegramNotifier(cfg.Telegram, logging.Component(logger, "telegram"))
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		} else {
			notifier = tn
		}
	}

	a.Transactions = service.NewTransactionService(a.Store, bus, notifier, service.TransactionConfig{
		DefaultHours:  cfg.Reservations.DefaultHours,
		RentalRate:    cfg.Rental.Rate,
		SweepOnAccess: cfg.Reservations.SweepOnAccess,
	}, logging.Component(logger, "transactions"))
	a.Inventory = service.NewInventoryService(a.Store, bus, logging.Component(logger, "inventory"))
	a.Customers = service.NewCustomerService(a.Store, a.Auth, logging.Component(logger, "customers"))
	a.Reports = service.NewReportService(a.Store)
	a.Exporter = export.NewExporter(cfg.Exports.Path, logging.Component(logger, "export"))

	a.Scheduler = worker.NewScheduler(logging.Component(logger, "scheduler"))
	sweeper := worker.NewSweeper(a.Transactions.SweepCount, logging.Component(logger, "sweeper"))
	if err := a.Scheduler.Add("reservation-sweep", cfg.Reservations.SweepSchedule, sweeper.Run); err != nil {
		a.Close()
		return nil, err
	}
	if b, ok := persister.(domain.Backupper); ok {
		if err := backup.NewService(b, cfg.Backup, logging.Component(logger, "backup")).Schedule(a.Scheduler); err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}
	return a, nil
}

func openPersister(cfg config.StorageConfig, logger *zerolog.Logger) (domain.Persister, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.NewDB(cfg.SQLitePath, logging.Component(logger, "sqlite"))
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.SQLitePath).Msg("init database")
			return nil, err
		}
		return db, nil
	default:
		st, err := csvstore.New(cfg.DataDir, logging.Component(logger, "csv"))
		if err != nil {
			logger.Error().Err(err).Str("data_dir", cfg.DataDir).Msg("init csv storage")
			return nil, err
		}
		return st, nil
	}
}

// sessions prefers redis and falls back to process memory when redis is not
// configured or unreachable.
func (a *App) sessions(ctx context.Context) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository()
	if a.Config.Redis.Address == "" {
		return memory
	}

	client := repository.NewRedisClient(a.Config.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		a.Logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory sessions")
		_ = repository.Close(client)
		return memory
	}

	a.Logger.Info().Str("addr", a.Config.Redis.Address).Msg("redis connected")
	a.redis = client
	return repository.NewFailoverSessionRepository(repository.NewRedisSessionRepository(client), memory, a.Logger)
}

func (a *App) applySeed(ctx context.Context) error {
	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "configs/seed.yaml"
	}

	data, err := seed.Load(seedPath)
	if errors.Is(err, os.ErrNotExist) {
		a.Logger.Debug().Str("seed_path", seedPath).Msg("no seed file")
		return nil
	}
	if err != nil {
		return err
	}

	applied, err := seed.Apply(ctx, a.Store, data, a.Auth, a.Logger)
	if err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	if applied {
		a.Logger.Info().Str("seed_path", seedPath).Msg("seed data applied")
	}
	return nil
}

// subscribeEventLog writes every domain event to the log.
func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	for _, t := range []string{
		events.EventCarSold,
		events.EventCarRented,
		events.EventCarReserved,
		events.EventReservationCanceled,
		events.EventReservationsExpired,
		events.EventServiceBooked,
		events.EventServiceProcessed,
		events.EventAdminAction,
	} {
		bus.Subscribe(t, func(e *events.Event) error {
			logger.Info().Str("event", e.Type).RawJSON("payload", e.Payload).Msg("Domain event")
			return nil
		})
	}
}

// Ready reports whether the persistence backend can be reached.
func (a *App) Ready(ctx context.Context) error {
	if p, ok := a.persister.(interface{ PingContext(context.Context) error }); ok {
		return p.PingContext(ctx)
	}
	if s, ok := a.persister.(*csvstore.Store); ok {
		if _, err := os.Stat(s.Dir()); err != nil {
			return err
		}
	}
	return nil
}

// StartMetricsServer serves /metrics on the monitoring port until ctx ends.
func (a *App) StartMetricsServer(ctx context.Context) {
	if !a.Config.Monitoring.PrometheusEnabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Monitoring.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// Close flushes the store and releases storage and redis.
func (a *App) Close() {
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Store.Flush(flushCtx); err != nil {
		a.Logger.Error().Err(err).Msg("final save failed")
	}
	if a.redis != nil {
		_ = repository.Close(a.redis)
	}
	if err := a.persister.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("close storage")
	}
}
