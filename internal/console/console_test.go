package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"dealership/internal/models"
	"dealership/internal/service"
	"dealership/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainHasher struct{}

func (plainHasher) HashPassword(p string) (string, error) { return "$2x$" + p, nil }
func (plainHasher) CheckPassword(p, hash string) bool   { return hash == "$2x$"+p }

type staticAdmin struct{}

func (staticAdmin) AuthenticateAdmin(username, password string) (models.Principal, error) {
	if username == "admin" && password == "admin123" {
		return models.Principal{Role: models.RoleAdmin, SubjectID: 1, Username: username}, nil
	}
	return models.Principal{}, store.ErrInvalidCredentials
}

func newConsole(t *testing.T, script ...string) (*Console, *bytes.Buffer, *store.Store) {
	t.Helper()
	logger := zerolog.Nop()
	st := store.New(nil)
	require.NoError(t, st.Update(context.Background(), func(tx *store.Tx) error {
		require.NoError(t, tx.InsertShowroom(models.Showroom{ID: 1, Name: "Central", CarIDs: []int64{5}}))
		require.NoError(t, tx.InsertCar(models.Car{ID: 5, Make: "Toyota", Model: "Corolla", Year: 2020, Price: 15000, ShowroomID: 1, Available: true}))
		require.NoError(t, tx.InsertService(models.Service{ID: 1, Name: "Oil change", Price: 50}))
		require.NoError(t, tx.InsertService(models.Service{ID: 2, Name: "Detailing", Price: 120}))
		require.NoError(t, tx.InsertGarage(models.Garage{ID: 1, Name: "North", ServiceIDs: []int64{1}}))
		return nil
	}))

	svc := Services{
		Transactions: service.NewTransactionService(st, nil, nil, service.TransactionConfig{}, &logger),
		Inventory:    service.NewInventoryService(st, nil, &logger),
		Customers:    service.NewCustomerService(st, plainHasher{}, &logger),
		Reports:      service.NewReportService(st),
		Admin:        staticAdmin{},
	}
	out := &bytes.Buffer{}
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	return New(in, out, svc, &logger), out, st
}

func TestConsole_CustomerFlow(t *testing.T) {
	c, out, st := newConsole(t,
		"1",
		"1", "carol", "pw", "555",
		"2", "carol", "pw",
		"10", "5", "",
		"13", "2", "1",
		"13", "1", "1",
		"abc",
		"16",
		"3",
		"3",
	)

	require.NoError(t, c.Run(context.Background()))
	text := out.String()

	assert.Contains(t, text, "Your customer ID is 1")
	assert.Contains(t, text, "Welcome, carol")
	assert.Contains(t, text, "Toyota Corolla reserved (reservation 1)")
	assert.Contains(t, text, "This garage does not offer that service.")
	assert.Contains(t, text, "Queue position: 1")
	assert.Contains(t, text, "Invalid choice. Please enter a number between 1-16.")
	assert.Contains(t, text, "Thank you for using Car Showroom Management System")
	assert.Equal(t, 1, st.QueueSize())
}

func TestConsole_AdminFlow(t *testing.T) {
	c, out, st := newConsole(t,
		"2", "admin", "admin123",
		"2", "Kia", "Rio", "abc",
		"2", "Kia", "Rio", "2022", "12000", "yes", "1",
		"25", "y",
		"23",
		"29",
		"32",
		"3",
	)

	require.NoError(t, c.Run(context.Background()))
	text := out.String()

	assert.Contains(t, text, "Admin login successful")
	assert.Contains(t, text, `Invalid input: "abc" is not a whole number`)
	assert.Contains(t, text, "Car added with ID 6")
	assert.Contains(t, text, "Last action: #1 add car #6")
	assert.Contains(t, text, "Note: consider manually removing the added entity")
	assert.Contains(t, text, "Service request queue is empty.")
	assert.Contains(t, text, "Cars: 2 (2 available, 0 unavailable)")
	assert.Zero(t, st.StackSize())
}

func TestConsole_RejectsBadAdminPassword(t *testing.T) {
	c, out, _ := newConsole(t, "2", "admin", "nope", "3")

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Invalid admin credentials")
	assert.NotContains(t, out.String(), "ADMIN PANEL")
}

func TestConsole_EndOfInputSaves(t *testing.T) {
	c, out, _ := newConsole(t, "1", "2", "ghost")

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Saving data before exit")
}

func TestConsole_AdminQueueAndClear(t *testing.T) {
	c, out, st := newConsole(t,
		"2", "admin", "admin123",
		"2", "Kia", "Rio", "2022", "12000", "no", "1",
		"2", "Kia", "Ceed", "2023", "18000", "no", "1",
		"25", "n",
		"26", "y",
		"26",
		"32",
		"3",
	)
	_, err := st.EnqueueServiceRequest(context.Background(), 7, 1, 1)
	require.NoError(t, err)

	require.NoError(t, c.Run(context.Background()))
	text := out.String()

	assert.Contains(t, text, "Last action: #2 add car #7")
	assert.Contains(t, text, "Cleared 2 action(s)")
	assert.Contains(t, text, "Admin action stack is empty.")
	assert.Zero(t, st.StackSize())
	assert.Equal(t, 1, st.QueueSize())
}

func TestConsole_ProcessNextShowsHead(t *testing.T) {
	c, out, st := newConsole(t,
		"2", "admin", "admin123",
		"23",
		"32",
		"3",
	)
	_, err := st.EnqueueServiceRequest(context.Background(), 4, 1, 1)
	require.NoError(t, err)

	require.NoError(t, c.Run(context.Background()))
	text := out.String()

	assert.Contains(t, text, "Next request: #1 for customer 4 (Oil change at North)")
	assert.Contains(t, text, "Amount: $50.00")
	assert.Zero(t, st.QueueSize())
}
