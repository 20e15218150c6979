package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"dealership/internal/events"
	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyServiceBooked(ctx context.Context, req models.ServiceRequest, serviceName, garageName string) {
	m.Called(ctx, req, serviceName, garageName)
}

func (m *mockNotifier) NotifyReservationsExpired(ctx context.Context, expired []models.Reservation) {
	m.Called(ctx, expired)
}

const fakeHashPrefix = "$2fake$"

type fakeHasher struct{}

func (fakeHasher) HashPassword(password string) (string, error) {
	return fakeHashPrefix + password, nil
}

func (fakeHasher) CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return strings.TrimPrefix(hash, fakeHashPrefix) == password
}

type fixture struct {
	clock     *testClock
	store     *store.Store
	bus       *events.EventBus
	notifier  *mockNotifier
	tx        *TransactionService
	inventory *InventoryService
	customers *CustomerService
	reports   *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	clock := &testClock{now: t0}
	st := store.New(nil, store.WithClock(clock.Now))
	bus := events.NewEventBus()
	n := new(mockNotifier)

	f := &fixture{
		clock:     clock,
		store:     st,
		bus:       bus,
		notifier:  n,
		tx:        NewTransactionService(st, bus, n, TransactionConfig{}, &logger),
		inventory: NewInventoryService(st, bus, &logger),
		customers: NewCustomerService(st, fakeHasher{}, &logger),
		reports:   NewReportService(st),
	}
	seed(t, st)
	return f
}

// seed: showroom 1 with cars 5 and 6, garage 1 offering service 1 only,
// services 1 and 2, customers 1 (alice) and 2 (bob).
func seed(t *testing.T, st *store.Store) {
	t.Helper()
	err := st.Update(context.Background(), func(tx *store.Tx) error {
		require.NoError(t, tx.InsertShowroom(models.Showroom{ID: 1, Name: "Central", Location: "Downtown", CarIDs: []int64{5, 6}}))
		require.NoError(t, tx.InsertCar(models.Car{ID: 5, Make: "Toyota", Model: "Corolla", Year: 2020, Price: 15000, ShowroomID: 1, Available: true}))
		require.NoError(t, tx.InsertCar(models.Car{ID: 6, Make: "Honda", Model: "Civic", Year: 2021, Price: 20000, ShowroomID: 1, Available: true}))
		require.NoError(t, tx.InsertService(models.Service{ID: 1, Name: "Oil change", Price: 50}))
		require.NoError(t, tx.InsertService(models.Service{ID: 2, Name: "Detailing", Price: 120}))
		require.NoError(t, tx.InsertGarage(models.Garage{ID: 1, Name: "North", Location: "Uptown", ServiceIDs: []int64{1}}))
		require.NoError(t, tx.InsertCustomer(models.Customer{ID: 1, Username: "alice", PasswordHash: fakeHashPrefix + "secret"}))
		require.NoError(t, tx.InsertCustomer(models.Customer{ID: 2, Username: "bob", PasswordHash: "legacy"}))
		return nil
	})
	require.NoError(t, err)
}

func carAvailable(t *testing.T, st *store.Store, id int64) bool {
	t.Helper()
	var available bool
	require.NoError(t, st.View(func(r *store.Reader) error {
		car, err := r.Car(id)
		available = car.Available
		return err
	}))
	return available
}
