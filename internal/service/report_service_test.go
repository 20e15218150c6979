package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const mockAny = mock.Anything

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.On("NotifyServiceBooked", mockAny, mockAny, mockAny, mockAny)

	_, err := f.tx.Buy(ctx, 1, 5)
	require.NoError(t, err)
	_, err = f.tx.Reserve(ctx, 2, 6, 1)
	require.NoError(t, err)
	_, err = f.tx.BookService(ctx, 2, 1, 1)
	require.NoError(t, err)
	_, err = f.tx.BookService(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, _, err = f.tx.ProcessNextServiceRequest(ctx)
	require.NoError(t, err)

	stats := f.reports.Statistics()
	assert.Equal(t, 2, stats.Cars)
	assert.Equal(t, 0, stats.AvailableCars)
	assert.Equal(t, 2, stats.UnavailableCars)
	assert.Equal(t, 1, stats.Purchases)
	assert.Equal(t, 1, stats.ServiceJobs)
	assert.Equal(t, 1, stats.ActiveReservations)
	assert.Equal(t, 1, stats.PendingRequests)
	assert.Equal(t, 15000.0, stats.CarRevenue)
	assert.Equal(t, 50.0, stats.ServiceRevenue)
	assert.Equal(t, 15050.0, stats.TotalRevenue)

	f.clock.Advance(time.Hour)
	assert.Zero(t, f.reports.Statistics().ActiveReservations, "expired but not yet swept")
}

func TestCustomerSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tx.Rent(ctx, 2, 5)
	require.NoError(t, err)
	_, err = f.tx.Reserve(ctx, 2, 6, 3)
	require.NoError(t, err)

	sum, err := f.reports.CustomerSummary(2)
	require.NoError(t, err)
	assert.Equal(t, "bob", sum.Customer.Username)
	assert.Equal(t, 1, sum.Purchases)
	assert.Equal(t, 1, sum.ActiveReservations)
	assert.InDelta(t, 1500.0, sum.TotalSpent, 0.001)

	stats, buyRent, services := f.reports.Export()
	assert.Equal(t, 1, stats.Rentals)
	assert.Len(t, buyRent, 1)
	assert.Empty(t, services)
}
