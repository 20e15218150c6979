package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"dealership/internal/models"
	"dealership/internal/store"
)

func (c *Console) customerPortal(ctx context.Context) error {
	for ctx.Err() == nil {
		c.printf("\n%s\nCUSTOMER PORTAL\n%s\n", rule, rule)
		c.printf("1. Register New Account\n2. Login\n3. Exit\n")

		choice, err := c.prompt("Enter your choice (1-3): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = c.register(ctx)
		case "2":
			var customer models.Customer
			if customer, err = c.login(ctx); err == nil {
				err = c.loop(ctx, "CUSTOMER MENU - "+customer.Username, c.customerItems(customer.ID))
			}
		case "3":
			return nil
		default:
			c.printf("\nInvalid choice. Please enter 1, 2, or 3.\n")
			continue
		}

		if errors.Is(err, errEndOfInput) {
			return err
		}
		if err != nil {
			c.report(err)
		}
	}
	return ctx.Err()
}

func (c *Console) register(ctx context.Context) error {
	username, err := c.prompt("Username: ")
	if err != nil {
		return err
	}
	password, err := c.prompt("Password: ")
	if err != nil {
		return err
	}
	phone, err := c.prompt("Phone Number: ")
	if err != nil {
		return err
	}

	customer, err := c.svc.Customers.Register(ctx, username, password, phone)
	if err != nil {
		return err
	}
	c.printf("\nRegistration successful. Your customer ID is %d\n", customer.ID)
	return nil
}

func (c *Console) login(ctx context.Context) (models.Customer, error) {
	username, err := c.prompt("Username: ")
	if err != nil {
		return models.Customer{}, err
	}
	password, err := c.prompt("Password: ")
	if err != nil {
		return models.Customer{}, err
	}

	customer, err := c.svc.Customers.Authenticate(ctx, username, password)
	if err != nil {
		return models.Customer{}, err
	}
	c.printf("\nWelcome, %s\n", customer.Username)
	return customer, nil
}

func (c *Console) customerItems(customerID int64) []menuItem {
	cs := c.svc.Customers
	tx := c.svc.Transactions
	return []menuItem{
		{"Browse All Available Cars", func(context.Context) error { c.printCars(cs.SearchCars(models.CarFilter{})); return nil }},
		{"Search Cars (Advanced)", c.searchCars},
		{"View Car Details", func(ctx context.Context) error {
			return c.withID(ctx, "Enter Car ID: ", func(id int64) error {
				car, err := cs.CarDetails(id)
				if err == nil {
					c.printCars([]models.Car{car})
				}
				return err
			})
		}},
		{"View Showrooms", func(context.Context) error { c.printShowrooms(cs.Showrooms()); return nil }},
		{"View Cars in Showroom", func(ctx context.Context) error {
			return c.withID(ctx, "Enter Showroom ID: ", func(id int64) error {
				cars, err := cs.CarsInShowroom(id)
				if err == nil {
					c.printCars(cars)
				}
				return err
			})
		}},
		{"View Garages", func(context.Context) error { c.printGarages(cs.Garages()); return nil }},
		{"View Services in Garage", func(ctx context.Context) error {
			return c.withID(ctx, "Enter Garage ID: ", func(id int64) error {
				services, err := cs.ServicesInGarage(id)
				if err == nil {
					c.printServices(services)
				}
				return err
			})
		}},
		{"Buy a Car", func(ctx context.Context) error {
			return c.withID(ctx, "Enter Car ID to buy: ", func(id int64) error {
				r, err := tx.Buy(ctx, customerID, id)
				if err == nil {
					c.printf("\nPurchase successful: %s for $%.2f (process %d)\n", r.Car.Label(), r.Process.Amount, r.Process.ProcessID)
				}
				return err
			})
		}},
		{"Rent a Car", func(ctx context.Context) error {
			return c.withID(ctx, "Enter Car ID to rent: ", func(id int64) error {
				r, err := tx.Rent(ctx, customerID, id)
				if err == nil {
					c.printf("\nRental successful: %s for $%.2f (process %d)\n", r.Car.Label(), r.Process.Amount, r.Process.ProcessID)
				}
				return err
			})
		}},
		{"Reserve a Car", func(ctx context.Context) error { return c.reserve(ctx, customerID) }},
		{"Cancel Reservation", func(ctx context.Context) error {
			return c.withID(ctx, "Enter Reservation ID to cancel: ", func(id int64) error {
				_, err := tx.CancelReservation(ctx, customerID, id)
				if err == nil {
					c.printf("\nReservation %d canceled\n", id)
				}
				return err
			})
		}},
		{"View My Reservations", func(context.Context) error { c.printReservations(tx.ReservationsFor(customerID)); return nil }},
		{"Book a Service", func(ctx context.Context) error { return c.bookService(ctx, customerID) }},
		{"View My Service Requests (Queue)", func(context.Context) error { c.printQueue(tx.MyServiceRequests(customerID)); return nil }},
		{"View My History", func(context.Context) error { return c.history(customerID) }},
	}
}

func (c *Console) searchCars(_ context.Context) error {
	c.printf("\nLeave any field empty to skip it.\n")
	var f models.CarFilter
	var err error

	if f.Make, err = c.prompt("Car Make (e.g., Toyota, Honda): "); err != nil {
		return err
	}
	if f.Model, err = c.prompt("Car Model (e.g., Camry, Accord): "); err != nil {
		return err
	}
	year, err := c.optionalNumber("Year (e.g., 2024): ")
	if err != nil {
		return err
	}
	if year != nil {
		f.Year = int(*year)
	}
	if f.MinPrice, err = c.optionalNumber("Minimum Price (e.g., 20000): "); err != nil {
		return err
	}
	if f.MaxPrice, err = c.optionalNumber("Maximum Price (e.g., 50000): "); err != nil {
		return err
	}
	if f.Installment, err = c.promptYesNo("Installment available (yes/no): "); err != nil {
		return err
	}

	c.printCars(c.svc.Customers.SearchCars(f))
	return nil
}

// optionalNumber ignores empty and malformed answers, as the search form does.
func (c *Console) optionalNumber(label string) (*float64, error) {
	raw, err := c.promptOptional(label)
	if err != nil || raw == nil {
		return nil, err
	}
	v, convErr := strconv.ParseFloat(*raw, 64)
	if convErr != nil {
		c.printf("Invalid number, skipping this filter.\n")
		return nil, nil
	}
	return &v, nil
}

func (c *Console) reserve(ctx context.Context, customerID int64) error {
	carID, err := c.promptInt("Enter Car ID to reserve: ")
	if err != nil {
		return err
	}
	raw, err := c.promptOptional("Reservation duration in hours (default 24): ")
	if err != nil {
		return err
	}
	var hours int
	if raw != nil {
		if hours, err = strconv.Atoi(*raw); err != nil || hours <= 0 {
			return fmt.Errorf("duration %q: %w", *raw, store.ErrInvalidInput)
		}
	}

	r, err := c.svc.Transactions.Reserve(ctx, customerID, carID, hours)
	if err != nil {
		return err
	}
	c.printf("\nCar %s reserved (reservation %d) until %s\n",
		r.Car.Label(), r.Reservation.ReservationID, r.Reservation.ExpiryTime.Format(models.TimeLayout))
	return nil
}

func (c *Console) bookService(ctx context.Context, customerID int64) error {
	serviceID, err := c.promptInt("Enter Service ID: ")
	if err != nil {
		return err
	}
	garageID, err := c.promptInt("Enter Garage ID: ")
	if err != nil {
		return err
	}

	res, err := c.svc.Transactions.BookService(ctx, customerID, serviceID, garageID)
	if err != nil {
		return err
	}
	c.printf("\nService booked: %s at %s\n  Request ID: %d\n  Queue position: %d\n",
		res.Service.Name, res.Garage.Name, res.Request.RequestID, res.Position)
	return nil
}

func (c *Console) history(customerID int64) error {
	h, err := c.svc.Customers.History(customerID)
	if err != nil {
		return err
	}

	c.printf("\nTransaction History for %s (ID: %d)\n", h.Customer.Username, h.Customer.ID)
	if len(h.BuyRent) == 0 {
		c.printf("\nCar Purchases & Rentals: No transactions found\n")
	} else {
		c.printf("\nCar Purchases & Rentals (%d):\n", len(h.BuyRent))
		for _, e := range h.BuyRent {
			c.printf("Process ID: %d | %s | %s | $%.2f | %s\n", e.ProcessID, e.Type,
				orID(e.CarLabel, "Car", e.CarID), e.Amount, e.Date.Format(models.TimeLayout))
		}
	}
	if len(h.Services) == 0 {
		c.printf("\nService History: No transactions found\n")
	} else {
		c.printf("\nService History (%d):\n", len(h.Services))
		for _, e := range h.Services {
			c.printf("Process ID: %d | %s | %s | $%.2f | %s\n", e.ProcessID,
				orID(e.ServiceName, "Service", e.ServiceID), orID(e.GarageName, "Garage", e.GarageID),
				e.Amount, e.Date.Format(models.TimeLayout))
		}
	}
	c.printf("\nSummary:\nTotal Car Purchases/Rentals: $%.2f\nTotal Services: $%.2f\nTotal Spent: $%.2f\n",
		h.TotalBuyRent, h.TotalServices, h.TotalSpent)
	return nil
}
