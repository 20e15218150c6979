package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dealership/internal/config"
	"dealership/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = `
showrooms:
  - id: 1
    name: "Central"
    car_ids: [1]
cars:
  - id: 1
    make: "Toyota"
    model: "Corolla"
    year: 2020
    price: 15000
    showroom_id: 1
    available: true
customers:
  - id: 1
    username: "demo"
    password: "demo123"
`

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App:     config.AppConfig{Name: "dealership"},
		Storage: config.StorageConfig{Driver: driver, DataDir: filepath.Join(dir, "data"), SQLitePath: filepath.Join(dir, "dealership.db")},
		API:     config.APIConfig{Auth: config.APIAuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}},
		Admin:   config.AdminConfig{ID: 1, Username: "admin", Password: "admin123"},
		Reservations: config.ReservationsConfig{
			DefaultHours:  24,
			SweepSchedule: "@every 1m",
		},
		Rental:  config.RentalConfig{Rate: 0.1},
		Exports: config.ExportConfig{Path: filepath.Join(dir, "exports")},
	}
}

func writeSeed(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o600))
	t.Setenv("SEED_PATH", path)
}

func TestNewSeedsEmptyStore(t *testing.T) {
	for _, driver := range []string{config.DriverCSV, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			writeSeed(t)
			logger := zerolog.Nop()

			a, err := New(context.Background(), testConfig(t, driver), &logger)
			require.NoError(t, err)
			defer a.Close()

			require.NoError(t, a.Ready(context.Background()))
			assert.Len(t, a.Inventory.Cars(), 1)

			c, err := a.Customers.Authenticate(context.Background(), "demo", "demo123")
			require.NoError(t, err)
			assert.Equal(t, int64(1), c.ID)
		})
	}
}

func TestNewReloadsWithoutReseeding(t *testing.T) {
	writeSeed(t)
	logger := zerolog.Nop()
	cfg := testConfig(t, config.DriverCSV)
	ctx := context.Background()

	a, err := New(ctx, cfg, &logger)
	require.NoError(t, err)
	_, err = a.Transactions.Buy(ctx, 1, 1)
	require.NoError(t, err)
	a.Close()

	b, err := New(ctx, cfg, &logger)
	require.NoError(t, err)
	defer b.Close()

	cars := b.Inventory.Cars()
	require.Len(t, cars, 1)
	assert.False(t, cars[0].Available)
	assert.Equal(t, 1, b.Reports.Statistics().Purchases)

	var history []models.BuyRentProcess
	_, history, _ = b.Reports.Export()
	assert.Len(t, history, 1)
}

func TestNewMissingSeedIsFine(t *testing.T) {
	t.Setenv("SEED_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	logger := zerolog.Nop()

	a, err := New(context.Background(), testConfig(t, config.DriverCSV), &logger)
	require.NoError(t, err)
	defer a.Close()
	assert.Empty(t, a.Inventory.Cars())
}

func TestNewRejectsBadSweepSchedule(t *testing.T) {
	t.Setenv("SEED_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	logger := zerolog.Nop()
	cfg := testConfig(t, config.DriverCSV)
	cfg.Reservations.SweepSchedule = "not a schedule"

	_, err := New(context.Background(), cfg, &logger)
	assert.Error(t, err)
}
