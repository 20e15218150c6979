package service

import (
	"context"
	"testing"
	"time"

	"dealership/internal/events"
	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReserve_ThenSweepReclaimsCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var expiredEvents int
	f.bus.Subscribe(events.EventReservationsExpired, func(e *events.Event) error {
		expiredEvents++
		return nil
	})

	receipt, err := f.tx.Reserve(ctx, 1, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.Reservation.ReservationID)
	assert.Equal(t, t0.Add(time.Hour), receipt.Reservation.ExpiryTime)
	assert.False(t, carAvailable(t, f.store, 5))

	f.notifier.On("NotifyReservationsExpired", mock.Anything, mock.MatchedBy(func(rs []models.Reservation) bool {
		return len(rs) == 1 && rs[0].CarID == 5
	})).Once()

	f.clock.Advance(2 * time.Hour)
	expired, err := f.tx.SweepExpired(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.True(t, carAvailable(t, f.store, 5))
	assert.Empty(t, f.tx.Reservations())
	assert.Equal(t, 1, expiredEvents)

	again, err := f.tx.SweepCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
	f.notifier.AssertExpectations(t)
}

func TestReserve_DefaultHoursAndUnavailableCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.tx.Reserve(ctx, 1, 6, 0)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultReservationHours, receipt.Hours)

	_, err = f.tx.Reserve(ctx, 2, 6, 1)
	assert.ErrorIs(t, err, store.ErrCarUnavailable)

	_, err = f.tx.Reserve(ctx, 2, 99, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCancelReservation_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.tx.Reserve(ctx, 1, 5, 2)
	require.NoError(t, err)
	id := receipt.Reservation.ReservationID

	_, err = f.tx.CancelReservation(ctx, 2, id)
	assert.ErrorIs(t, err, store.ErrNotOwner)
	assert.False(t, carAvailable(t, f.store, 5))

	_, err = f.tx.CancelReservation(ctx, 1, id)
	require.NoError(t, err)
	assert.True(t, carAvailable(t, f.store, 5))
	assert.Empty(t, f.tx.ReservationsFor(1))
}

func TestBuyAndRent_Amounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rent, err := f.tx.Rent(ctx, 1, 6)
	require.NoError(t, err)
	assert.InDelta(t, 2000.0, rent.Process.Amount, 0.001)
	assert.Equal(t, models.TransactionRent, rent.Process.Type)
	assert.False(t, rent.Car.Available)

	buy, err := f.tx.Buy(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 15000.0, buy.Process.Amount)
	assert.Equal(t, int64(2), buy.Process.ProcessID)

	_, err = f.tx.Buy(ctx, 2, 5)
	assert.ErrorIs(t, err, store.ErrCarUnavailable)
}

func TestBookService_NotOfferedLeavesQueueUnchanged(t *testing.T) {
	f := newFixture(t)

	_, err := f.tx.BookService(context.Background(), 1, 2, 1)
	assert.ErrorIs(t, err, store.ErrServiceNotOffered)
	assert.Equal(t, 0, f.store.QueueSize())
	f.notifier.AssertNotCalled(t, "NotifyServiceBooked", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceQueue_FIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.On("NotifyServiceBooked", mock.Anything, mock.Anything, "Oil change", "North").Times(3)

	for i, customer := range []int64{1, 2, 1} {
		res, err := f.tx.BookService(ctx, customer, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), res.Request.RequestID)
		assert.Equal(t, i+1, res.Position)
	}

	mine := f.tx.MyServiceRequests(1)
	require.Len(t, mine, 2)
	assert.Equal(t, 1, mine[0].Position)
	assert.Equal(t, 3, mine[1].Position)

	done, ok, err := f.tx.ProcessNextServiceRequest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), done.Request.RequestID)
	assert.Equal(t, 50.0, done.Process.Amount)
	assert.Equal(t, 2, f.store.QueueSize())

	queue := f.tx.Queue()
	require.Len(t, queue, 2)
	assert.Equal(t, int64(2), queue[0].RequestID)
	assert.Equal(t, "Oil change", queue[0].ServiceName)
	f.notifier.AssertExpectations(t)
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	f := newFixture(t)

	res, ok, err := f.tx.ProcessNextServiceRequest(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)
	assert.Equal(t, 0, f.store.QueueSize())
}

func TestProcessNext_DeletedServiceIsFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.On("NotifyServiceBooked", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	_, err := f.tx.BookService(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, err = f.inventory.DeleteService(ctx, 1, 1)
	require.NoError(t, err)

	done, ok, err := f.tx.ProcessNextServiceRequest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, done.Service)
	assert.Zero(t, done.Process.Amount)
}

func TestSweepOnAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tx.cfg.SweepOnAccess = true
	f.notifier.On("NotifyReservationsExpired", mock.Anything, mock.Anything).Once()

	_, err := f.tx.Reserve(ctx, 1, 5, 1)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.tx.Buy(ctx, 2, 5)
	require.NoError(t, err, "expiry is inclusive, so the car is free again")
	f.notifier.AssertExpectations(t)
}

func TestDeleteCar_ReusedIDStartsWithoutReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.tx.Reserve(ctx, 1, 6, 2)
	require.NoError(t, err)
	resID := receipt.Reservation.ReservationID

	_, err = f.inventory.DeleteCar(ctx, 1, 6)
	require.NoError(t, err)
	assert.Empty(t, f.tx.Reservations())

	car, err := f.inventory.AddCar(ctx, 1, CarInput{Make: "Mazda", Model: "3", Year: 2022, Price: 18000, ShowroomID: 1})
	require.NoError(t, err)
	require.Equal(t, int64(6), car.ID)

	_, err = f.tx.Buy(ctx, 2, 6)
	require.NoError(t, err)

	_, err = f.tx.CancelReservation(ctx, 1, resID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, carAvailable(t, f.store, 6), "a sold car must stay sold")

	f.clock.Advance(3 * time.Hour)
	n, err := f.tx.SweepCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, carAvailable(t, f.store, 6))
}

func TestNextServiceRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := f.tx.NextServiceRequest()
	assert.False(t, ok)

	f.notifier.On("NotifyServiceBooked", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Twice()
	_, err := f.tx.BookService(ctx, 2, 1, 1)
	require.NoError(t, err)
	_, err = f.tx.BookService(ctx, 1, 1, 1)
	require.NoError(t, err)

	next, ok := f.tx.NextServiceRequest()
	require.True(t, ok)
	assert.Equal(t, int64(1), next.RequestID)
	assert.Equal(t, int64(2), next.CustomerID)
	assert.Equal(t, 1, next.Position)
	assert.Equal(t, "Oil change", next.ServiceName)
	assert.Equal(t, "North", next.GarageName)
	assert.Equal(t, 2, f.store.QueueSize(), "peeking leaves the queue intact")

	done, ok, err := f.tx.ProcessNextServiceRequest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, next.RequestID, done.Request.RequestID)

	mine := f.tx.MyServiceRequests(1)
	require.Len(t, mine, 1)
	assert.Equal(t, 1, mine[0].Position)
	assert.Empty(t, f.tx.MyServiceRequests(2))
}
