package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"dealership/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Storage      StorageConfig      `yaml:"storage"`
	Redis        RedisConfig        `yaml:"redis"`
	Backup       BackupConfig       `yaml:"backup"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Logging      LoggingConfig      `yaml:"logging"`
	API          APIConfig          `yaml:"api"`
	Admin        AdminConfig        `yaml:"admin"`
	Reservations ReservationsConfig `yaml:"reservations"`
	Rental       RentalConfig       `yaml:"rental"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Exports      ExportConfig       `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type StorageConfig struct {
	Driver     string      `yaml:"driver"`
	DataDir    string      `yaml:"data_dir"`
	SQLitePath string      `yaml:"sqlite_path"`
	Retry      RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// AdminConfig задаёт учётную запись администратора.
// PasswordHash (bcrypt) имеет приоритет над Password.
type AdminConfig struct {
	ID           int64  `yaml:"id"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

type ReservationsConfig struct {
	DefaultHours  int    `yaml:"default_hours"`
	SweepSchedule string `yaml:"sweep_schedule"`
	SweepOnAccess bool   `yaml:"sweep_on_access"`
}

type RentalConfig struct {
	Rate float64 `yaml:"rate"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Debug       bool   `yaml:"debug"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverCSV:
		if c.Storage.DataDir == "" {
			return errors.New("storage data_dir is required for csv driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage sqlite_path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Admin.Username == "" {
		return errors.New("admin username is required")
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return errors.New("admin password or password_hash is required")
	}

	if c.API.Enabled && c.API.Auth.JWTSecret == "" {
		return errors.New("api auth jwt_secret is required when api is enabled")
	}

	if c.Rental.Rate <= 0 || c.Rental.Rate > 1 {
		return fmt.Errorf("rental rate must be in (0, 1], got %v", c.Rental.Rate)
	}
	if c.Reservations.DefaultHours <= 0 {
		return fmt.Errorf("reservations default_hours must be positive, got %d", c.Reservations.DefaultHours)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "dealership"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverCSV
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/dealership.db"
	}
	if c.Storage.Retry.MaxRetries == 0 {
		c.Storage.Retry.MaxRetries = 3
	}
	if c.Storage.Retry.InitialDelay == 0 {
		c.Storage.Retry.InitialDelay = 100 * time.Millisecond
	}
	if c.Storage.Retry.MaxDelay == 0 {
		c.Storage.Retry.MaxDelay = 2 * time.Second
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.Auth.TokenTTL == 0 {
		c.API.Auth.TokenTTL = models.DefaultSessionTTL
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	// Учётная запись администратора по умолчанию
	if c.Admin.ID == 0 {
		c.Admin.ID = 1
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
		if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
			c.Admin.Password = "admin123"
		}
	}

	if c.Reservations.DefaultHours == 0 {
		c.Reservations.DefaultHours = models.DefaultReservationHours
	}
	if c.Reservations.SweepSchedule == "" {
		c.Reservations.SweepSchedule = "@every 1m"
	}
	if c.Rental.Rate == 0 {
		c.Rental.Rate = models.DefaultRentalRate
	}

	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "@daily"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
