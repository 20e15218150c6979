package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dealership/internal/models"
	"dealership/internal/service"
	"dealership/internal/store"

	"github.com/rs/zerolog"
)

const rule = "============================================================"

var errEndOfInput = errors.New("end of input")

type AdminAuthenticator interface {
	AuthenticateAdmin(username, password string) (models.Principal, error)
}

type ReportExporter interface {
	Export(stats models.Statistics, buyRent []models.BuyRentProcess, services []models.ServiceProcess) (string, error)
}

// Services bundles what the menus call into.
type Services struct {
	Transactions *service.TransactionService
	Inventory    *service.InventoryService
	Customers    *service.CustomerService
	Reports      *service.ReportService
	Admin        AdminAuthenticator
	Exporter     ReportExporter
}

// Console runs the numbered text menus over any reader and writer.
type Console struct {
	in     *bufio.Scanner
	out    io.Writer
	svc    Services
	logger *zerolog.Logger
}

func New(in io.Reader, out io.Writer, svc Services, logger *zerolog.Logger) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, svc: svc, logger: logger}
}

type menuItem struct {
	label  string
	action func(ctx context.Context) error
}

// Run shows the main menu until the user exits or input ends, then saves
// all data.
func (c *Console) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		c.printf("\n%s\nCAR SHOWROOM MANAGEMENT SYSTEM\n%s\n", rule, rule)
		c.printf("1. Customer Portal\n2. Admin Panel\n3. Exit\n")

		choice, err := c.prompt("Enter your choice (1-3): ")
		if err != nil {
			break
		}

		switch choice {
		case "1":
			err = c.customerPortal(ctx)
		case "2":
			err = c.adminPanel(ctx)
		case "3":
			return c.saveOnExit(ctx)
		default:
			c.printf("\nInvalid choice. Please enter 1, 2, or 3.\n")
		}
		if errors.Is(err, errEndOfInput) {
			break
		}
	}
	return c.saveOnExit(ctx)
}

func (c *Console) saveOnExit(ctx context.Context) error {
	c.printf("\nSaving data before exit\n")
	if err := c.svc.Inventory.Flush(context.WithoutCancel(ctx)); err != nil {
		c.printf("Failed to save data: %v\n", err)
		return err
	}
	c.printf("Thank you for using Car Showroom Management System\n")
	return nil
}

// loop renders a numbered menu; the last entry leaves it.
func (c *Console) loop(ctx context.Context, title string, items []menuItem) error {
	for ctx.Err() == nil {
		c.printf("\n%s\n %s\n%s\n", rule, title, rule)
		for i, item := range items {
			c.printf("%-3s %s\n", strconv.Itoa(i+1)+".", item.label)
		}
		c.printf("%-3s Logout\n%s\n", strconv.Itoa(len(items)+1)+".", rule)

		choice, err := c.prompt(fmt.Sprintf("Enter your choice (1-%d): ", len(items)+1))
		if err != nil {
			return err
		}
		n, convErr := strconv.Atoi(choice)
		switch {
		case convErr != nil || n < 1 || n > len(items)+1:
			c.printf("\nInvalid choice. Please enter a number between 1-%d.\n", len(items)+1)
			continue
		case n == len(items)+1:
			c.printf("\nLogging out\n")
			return nil
		}

		if err := items[n-1].action(ctx); err != nil {
			if errors.Is(err, errEndOfInput) {
				return err
			}
			c.report(err)
		}
	}
	return ctx.Err()
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) prompt(label string) (string, error) {
	c.printf("%s", label)
	if !c.in.Scan() {
		return "", errEndOfInput
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) promptInt(label string) (int64, error) {
	raw, err := c.prompt(label)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number: %w", raw, store.ErrInvalidInput)
	}
	return v, nil
}

func (c *Console) promptFloat(label string) (float64, error) {
	raw, err := c.prompt(label)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", raw, store.ErrInvalidInput)
	}
	return v, nil
}

// promptOptional returns nil for an empty answer.
func (c *Console) promptOptional(label string) (*string, error) {
	raw, err := c.prompt(label)
	if err != nil || raw == "" {
		return nil, err
	}
	return &raw, nil
}

func (c *Console) promptYesNo(label string) (*bool, error) {
	raw, err := c.prompt(label)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(raw) {
	case "y", "yes":
		v := true
		return &v, nil
	case "n", "no":
		v := false
		return &v, nil
	}
	return nil, nil
}

func (c *Console) confirm(label string) (bool, error) {
	v, err := c.promptYesNo(label)
	if err != nil {
		return false, err
	}
	return v != nil && *v, nil
}

// report prints a failed operation and keeps the session going.
func (c *Console) report(err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		c.printf("\nInvalid input: %v\n", err)
	case errors.Is(err, store.ErrNotFound):
		c.printf("\nNot found: %v\n", err)
	case errors.Is(err, store.ErrCarUnavailable):
		c.printf("\nCar is not available: %v\n", err)
	case errors.Is(err, store.ErrServiceNotOffered):
		c.printf("\nThis garage does not offer that service.\n")
	case errors.Is(err, store.ErrNotOwner):
		c.printf("\nThat reservation belongs to another customer.\n")
	case errors.Is(err, store.ErrUsernameTaken):
		c.printf("\nUsername already exists.\n")
	case errors.Is(err, store.ErrInvalidCredentials):
		c.printf("\nInvalid username or password.\n")
	case errors.Is(err, store.ErrPersist):
		c.printf("\nChanges could not be saved: %v\n", err)
	default:
		c.printf("\nAn error occurred: %v\nPlease try again.\n", err)
	}
	c.logger.Debug().Err(err).Msg("Console operation failed")
}

func availability(available bool) string {
	if available {
		return "Available"
	}
	return "Unavailable"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func (c *Console) printCars(cars []models.Car) {
	if len(cars) == 0 {
		c.printf("\nNo cars found.\n")
		return
	}
	c.printf("\nCars (%d):\n", len(cars))
	for _, car := range cars {
		c.printf("ID: %d | %s (%d)\n", car.ID, car.Label(), car.Year)
		c.printf("  Price: $%.2f | Installment: %s | Status: %s | Showroom: %d\n",
			car.Price, yesNo(car.Installment), availability(car.Available), car.ShowroomID)
	}
}

func (c *Console) printShowrooms(items []models.Showroom) {
	if len(items) == 0 {
		c.printf("\nNo showrooms found.\n")
		return
	}
	for _, s := range items {
		c.printf("ID: %d | %s | %s | %s | Cars: %d\n", s.ID, s.Name, s.Location, s.Phone, len(s.CarIDs))
	}
}

func (c *Console) printGarages(items []models.Garage) {
	if len(items) == 0 {
		c.printf("\nNo garages found.\n")
		return
	}
	for _, g := range items {
		c.printf("ID: %d | %s | %s | %s | Services: %d\n", g.ID, g.Name, g.Location, g.Phone, len(g.ServiceIDs))
	}
}

func (c *Console) printServices(items []models.Service) {
	if len(items) == 0 {
		c.printf("\nNo services found.\n")
		return
	}
	for _, s := range items {
		c.printf("ID: %d | %s | $%.2f\n", s.ID, s.Name, s.Price)
	}
}

func (c *Console) printQueue(items []service.QueuedRequest) {
	if len(items) == 0 {
		c.printf("\nService request queue is empty.\n")
		return
	}
	c.printf("\nService Request Queue (%d):\n", len(items))
	for _, q := range items {
		c.printf("%d. Request #%d | Customer %d | %s at %s | %s\n",
			q.Position, q.RequestID, q.CustomerID, orID(q.ServiceName, "Service", q.ServiceID),
			orID(q.GarageName, "Garage", q.GarageID), q.Timestamp.Format(models.TimeLayout))
	}
}

func orID(name, kind string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s #%d", kind, id)
}
