package service

import (
	"context"
	"testing"

	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.customers.Register(ctx, "carol", "pw", "555")
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, fakeHashPrefix+"pw", c.PasswordHash)

	_, err = f.customers.Register(ctx, "ALICE", "pw", "")
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	_, err = f.customers.Register(ctx, "  ", "pw", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.customers.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	_, err = f.customers.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)

	_, err = f.customers.Authenticate(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
}

func TestAuthenticate_RehashesLegacyPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.customers.Authenticate(ctx, "bob", "legacy")
	require.NoError(t, err)

	bob, err := f.customers.Customer(2)
	require.NoError(t, err)
	assert.Equal(t, fakeHashPrefix+"legacy", bob.PasswordHash)

	_, err = f.customers.Authenticate(ctx, "bob", "legacy")
	assert.NoError(t, err)
}

func TestSearchCars_AvailableByDefault(t *testing.T) {
	f := newFixture(t)
	_, err := f.tx.Buy(context.Background(), 1, 6)
	require.NoError(t, err)

	cars := f.customers.SearchCars(models.CarFilter{})
	require.Len(t, cars, 1)
	assert.Equal(t, int64(5), cars[0].ID)

	all := false
	sold := f.customers.SearchCars(models.CarFilter{Available: &all})
	require.Len(t, sold, 1)
	assert.Equal(t, int64(6), sold[0].ID)

	inShowroom, err := f.customers.CarsInShowroom(1)
	require.NoError(t, err)
	assert.Len(t, inShowroom, 1)

	_, err = f.customers.CarsInShowroom(9)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSearchLocationsAndServices(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.customers.SearchShowrooms(models.LocationFilter{Location: "down"}), 1)
	assert.Empty(t, f.customers.SearchShowrooms(models.LocationFilter{Name: "west"}))
	assert.Len(t, f.customers.SearchGarages(models.LocationFilter{Name: "nor"}), 1)

	limit := 100.0
	services := f.customers.SearchServices(ServiceFilter{MaxPrice: &limit})
	require.Len(t, services, 1)
	assert.Equal(t, "Oil change", services[0].Name)

	offered, err := f.customers.ServicesInGarage(1)
	require.NoError(t, err)
	assert.Len(t, offered, 1)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.On("NotifyServiceBooked", mockAny, mockAny, mockAny, mockAny)

	_, err := f.tx.Buy(ctx, 1, 5)
	require.NoError(t, err)
	_, err = f.tx.BookService(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, _, err = f.tx.ProcessNextServiceRequest(ctx)
	require.NoError(t, err)

	h, err := f.customers.History(1)
	require.NoError(t, err)
	require.Len(t, h.BuyRent, 1)
	assert.Equal(t, "Toyota Corolla", h.BuyRent[0].CarLabel)
	require.Len(t, h.Services, 1)
	assert.Equal(t, "North", h.Services[0].GarageName)
	assert.Equal(t, 15050.0, h.TotalSpent)

	_, err = f.customers.History(42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
