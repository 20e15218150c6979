package service

import (
	"context"
	"testing"

	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCar_ListsInShowroomAndLogsAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	car, err := f.inventory.AddCar(ctx, 1, CarInput{Make: "Kia", Model: "Rio", Year: 2022, Price: 12000, ShowroomID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(7), car.ID)
	assert.True(t, car.Available)

	cars, err := f.customers.CarsInShowroom(1)
	require.NoError(t, err)
	assert.Len(t, cars, 3)

	actions := f.inventory.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionAdd, actions[0].ActionType)
	assert.Equal(t, models.EntityCar, actions[0].EntityType)
	assert.Equal(t, int64(7), actions[0].EntityID)
	assert.Equal(t, "Kia Rio", actions[0].Details)
}

func TestAddCar_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inventory.AddCar(ctx, 1, CarInput{Make: "Kia", Model: "Rio", Year: 2022, ShowroomID: 42})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.inventory.AddCar(ctx, 1, CarInput{Make: "", Model: "Rio", Year: 2022, ShowroomID: 1})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = f.inventory.AddCar(ctx, 1, CarInput{Make: "Kia", Model: "Rio", Year: 0, ShowroomID: 1})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	assert.Zero(t, f.store.StackSize(), "failed adds are not logged")
}

func TestUpdateCar_Partial(t *testing.T) {
	f := newFixture(t)
	price := 14000.0

	car, err := f.inventory.UpdateCar(context.Background(), 5, CarUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 14000.0, car.Price)
	assert.Equal(t, "Toyota", car.Make)
	assert.Zero(t, f.store.StackSize())
}

func TestDeleteCar_RemovesFromShowroom(t *testing.T) {
	f := newFixture(t)

	_, err := f.inventory.DeleteCar(context.Background(), 1, 5)
	require.NoError(t, err)

	showrooms := f.inventory.Showrooms()
	require.Len(t, showrooms, 1)
	assert.Equal(t, []int64{6}, showrooms[0].CarIDs)
	assert.Equal(t, models.ActionDelete, f.inventory.Actions()[0].ActionType)
}

func TestDeleteShowroom_ReportsListedCars(t *testing.T) {
	f := newFixture(t)

	res, err := f.inventory.DeleteShowroom(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Warnings)
	assert.Equal(t, "Central", res.Name)
	assert.Len(t, f.inventory.Cars(), 2, "cars outlive their showroom")
}

func TestAttachDetachService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.inventory.AttachService(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, g.ServiceIDs)

	_, err = f.inventory.AttachService(ctx, 1, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)

	g, err = f.inventory.DetachService(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, g.ServiceIDs)

	_, err = f.inventory.DetachService(ctx, 1, 1)
	assert.ErrorIs(t, err, store.ErrServiceNotOffered)
}

func TestLocationAndServiceCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	garage, err := f.inventory.AddGarage(ctx, 1, LocationInput{Name: "South", Location: "Harbor"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), garage.ID)

	phone := "555-0100"
	garage, err = f.inventory.UpdateGarage(ctx, 2, LocationUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", garage.Phone)
	assert.Equal(t, "South", garage.Name)

	showroom, err := f.inventory.AddShowroom(ctx, 1, LocationInput{Name: "East"})
	require.NoError(t, err)
	name := "East Side"
	showroom, err = f.inventory.UpdateShowroom(ctx, showroom.ID, LocationUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "East Side", showroom.Name)

	svc, err := f.inventory.AddService(ctx, 1, ServiceInput{Name: "Tyres", Price: 80})
	require.NoError(t, err)
	assert.Equal(t, int64(3), svc.ID)
	negative := -1.0
	_, err = f.inventory.UpdateService(ctx, svc.ID, ServiceUpdate{Price: &negative})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	res, err := f.inventory.DeleteGarage(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Warnings)

	assert.Equal(t, 4, f.store.StackSize())
}

func TestDeleteCustomer(t *testing.T) {
	f := newFixture(t)

	c, err := f.inventory.DeleteCustomer(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", c.Username)
	assert.Len(t, f.inventory.Customers(), 1)

	_, err = f.inventory.DeleteCustomer(context.Background(), 1, 2)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUndoLastAction_LIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inventory.AddService(ctx, 1, ServiceInput{Name: "Tyres", Price: 80})
	require.NoError(t, err)
	_, err = f.inventory.DeleteCar(ctx, 1, 6)
	require.NoError(t, err)

	report, ok, err := f.inventory.UndoLastAction(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), report.Action.ActionID)
	assert.Equal(t, "manual restoration required", report.Advice)

	report, ok, err = f.inventory.UndoLastAction(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), report.Action.ActionID)
	assert.Equal(t, "consider manually removing the added entity", report.Advice)

	_, ok, err = f.inventory.UndoLastAction(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.customers.CarDetails(6)
	assert.ErrorIs(t, err, store.ErrNotFound, "undo is advisory")
}

func TestFlush_WithoutPersister(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.inventory.Flush(context.Background()))
}

func TestLastActionAndClearActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := f.inventory.LastAction()
	assert.False(t, ok)

	_, err := f.inventory.AddService(ctx, 1, ServiceInput{Name: "Tyres", Price: 80})
	require.NoError(t, err)
	_, err = f.inventory.DeleteCar(ctx, 1, 5)
	require.NoError(t, err)

	top, ok := f.inventory.LastAction()
	require.True(t, ok)
	assert.Equal(t, int64(2), top.ActionID)
	assert.Equal(t, models.ActionDelete, top.ActionType)
	assert.Equal(t, 2, f.store.StackSize(), "peeking leaves the stack intact")

	n, err := f.inventory.ClearActions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, f.store.StackSize())
	assert.Empty(t, f.inventory.Actions())

	n, err = f.inventory.ClearActions(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteCustomer_NewAccountGetsFreshID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tx.Buy(ctx, 2, 5)
	require.NoError(t, err)
	_, err = f.tx.Reserve(ctx, 2, 6, 1)
	require.NoError(t, err)

	_, err = f.inventory.DeleteCustomer(ctx, 1, 2)
	require.NoError(t, err)

	carol, err := f.customers.Register(ctx, "carol", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), carol.ID)

	h, err := f.customers.History(carol.ID)
	require.NoError(t, err)
	assert.Empty(t, h.BuyRent)
	assert.Empty(t, h.Services)
	assert.Zero(t, h.TotalSpent)
	assert.Empty(t, f.tx.ReservationsFor(carol.ID))
}
