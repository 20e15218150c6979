package console

import (
	"context"
	"fmt"

	"dealership/internal/models"
	"dealership/internal/service"
	"dealership/internal/store"
)

func (c *Console) adminPanel(ctx context.Context) error {
	c.printf("\n%s\nADMIN LOGIN\n%s\n", rule, rule)
	username, err := c.prompt("Admin Username: ")
	if err != nil {
		return err
	}
	password, err := c.prompt("Admin Password: ")
	if err != nil {
		return err
	}

	admin, err := c.svc.Admin.AuthenticateAdmin(username, password)
	if err != nil {
		c.printf("\nInvalid admin credentials\n")
		return nil
	}
	c.printf("\nAdmin login successful\n")
	c.logger.Info().Str("username", admin.Username).Msg("Admin logged in on console")

	return c.loop(ctx, "ADMIN PANEL - "+admin.Username, c.adminItems(admin.SubjectID))
}

func (c *Console) adminItems(adminID int64) []menuItem {
	inv := c.svc.Inventory
	return []menuItem{
		{"View All Cars", func(context.Context) error { c.printCars(inv.Cars()); return nil }},
		{"Add New Car", func(ctx context.Context) error { return c.addCar(ctx, adminID) }},
		{"Update Car", c.updateCar},
		{"Delete Car", func(ctx context.Context) error {
			return c.withID(ctx, "Car ID to delete: ", func(id int64) error {
				car, err := inv.DeleteCar(ctx, adminID, id)
				if err == nil {
					c.printf("\nCar %s deleted\n", car.Label())
				}
				return err
			})
		}},
		{"View All Customers", func(context.Context) error { c.printCustomers(inv.Customers()); return nil }},
		{"View Customer Details", c.customerDetails},
		{"Delete Customer", func(ctx context.Context) error {
			return c.withID(ctx, "Customer ID to delete: ", func(id int64) error {
				cust, err := inv.DeleteCustomer(ctx, adminID, id)
				if err == nil {
					c.printf("\nCustomer %s deleted\n", cust.Username)
				}
				return err
			})
		}},
		{"View All Showrooms", func(context.Context) error { c.printShowrooms(inv.Showrooms()); return nil }},
		{"Add New Showroom", func(ctx context.Context) error {
			in, err := c.locationInput()
			if err != nil {
				return err
			}
			s, err := inv.AddShowroom(ctx, adminID, in)
			if err == nil {
				c.printf("\nShowroom added with ID %d\n", s.ID)
			}
			return err
		}},
		{"Update Showroom", func(ctx context.Context) error {
			return c.withID(ctx, "Showroom ID: ", func(id int64) error {
				upd, err := c.locationUpdate()
				if err != nil {
					return err
				}
				_, err = inv.UpdateShowroom(ctx, id, upd)
				if err == nil {
					c.printf("\nShowroom updated\n")
				}
				return err
			})
		}},
		{"Delete Showroom", func(ctx context.Context) error {
			return c.withID(ctx, "Showroom ID to delete: ", func(id int64) error {
				res, err := inv.DeleteShowroom(ctx, adminID, id)
				if err == nil {
					c.printDeleted("Showroom", res, "car(s) still reference it")
				}
				return err
			})
		}},
		{"View All Garages", func(context.Context) error { c.printGarages(inv.Garages()); return nil }},
		{"Add New Garage", func(ctx context.Context) error {
			in, err := c.locationInput()
			if err != nil {
				return err
			}
			g, err := inv.AddGarage(ctx, adminID, in)
			if err == nil {
				c.printf("\nGarage added with ID %d\n", g.ID)
			}
			return err
		}},
		{"Update Garage", func(ctx context.Context) error {
			return c.withID(ctx, "Garage ID: ", func(id int64) error {
				upd, err := c.locationUpdate()
				if err != nil {
					return err
				}
				_, err = inv.UpdateGarage(ctx, id, upd)
				if err == nil {
					c.printf("\nGarage updated\n")
				}
				return err
			})
		}},
		{"Delete Garage", func(ctx context.Context) error {
			return c.withID(ctx, "Garage ID to delete: ", func(id int64) error {
				res, err := inv.DeleteGarage(ctx, adminID, id)
				if err == nil {
					c.printDeleted("Garage", res, "service link(s) removed with it")
				}
				return err
			})
		}},
		{"View All Services", func(context.Context) error { c.printServices(inv.Services()); return nil }},
		{"Add New Service", func(ctx context.Context) error { return c.addService(ctx, adminID) }},
		{"Update Service", c.updateService},
		{"Delete Service", func(ctx context.Context) error {
			return c.withID(ctx, "Service ID to delete: ", func(id int64) error {
				svc, err := inv.DeleteService(ctx, adminID, id)
				if err == nil {
					c.printf("\nService %s deleted\n", svc.Name)
				}
				return err
			})
		}},
		{"Offer Service at Garage", func(ctx context.Context) error { return c.linkService(ctx, true) }},
		{"Withdraw Service from Garage", func(ctx context.Context) error { return c.linkService(ctx, false) }},
		{"View Service Request Queue", func(context.Context) error { c.printQueue(c.svc.Transactions.Queue()); return nil }},
		{"Process Next Service Request", c.processNext},
		{"View Admin Action Stack", func(context.Context) error { c.printActions(inv.Actions()); return nil }},
		{"Undo Last Action", c.undoLast},
		{"Clear Admin Action Stack", func(ctx context.Context) error { return c.clearActions(ctx, adminID) }},
		{"View All Reservations", func(context.Context) error { c.printReservations(c.svc.Transactions.Reservations()); return nil }},
		{"Clean Expired Reservations", c.cleanExpired},
		{"View Statistics", func(context.Context) error { c.printStatistics(c.svc.Reports.Statistics()); return nil }},
		{"Export Report to Excel", c.exportReport},
		{"Save All Data", func(ctx context.Context) error {
			if err := inv.Flush(ctx); err != nil {
				return err
			}
			c.printf("\nAll data saved\n")
			return nil
		}},
	}
}

func (c *Console) withID(_ context.Context, label string, fn func(id int64) error) error {
	id, err := c.promptInt(label)
	if err != nil {
		return err
	}
	return fn(id)
}

func (c *Console) addCar(ctx context.Context, adminID int64) error {
	c.printf("\n%s\nADD NEW CAR\n%s\n", rule, rule)
	var (
		in  service.CarInput
		err error
	)
	if in.Make, err = c.prompt("Car Make: "); err != nil {
		return err
	}
	if in.Model, err = c.prompt("Car Model: "); err != nil {
		return err
	}
	year, err := c.promptInt("Year: ")
	if err != nil {
		return err
	}
	in.Year = int(year)
	if in.Price, err = c.promptFloat("Price: "); err != nil {
		return err
	}
	installment, err := c.promptYesNo("Installment available (yes/no): ")
	if err != nil {
		return err
	}
	in.Installment = installment != nil && *installment
	if in.ShowroomID, err = c.promptInt("Showroom ID: "); err != nil {
		return err
	}

	car, err := c.svc.Inventory.AddCar(ctx, adminID, in)
	if err != nil {
		return err
	}
	c.printf("\nCar added with ID %d\n", car.ID)
	return nil
}

func (c *Console) updateCar(ctx context.Context) error {
	id, err := c.promptInt("Car ID to update: ")
	if err != nil {
		return err
	}
	c.printf("Leave a field empty to keep its value.\n")

	var upd service.CarUpdate
	if upd.Make, err = c.promptOptional("New Make: "); err != nil {
		return err
	}
	if upd.Model, err = c.promptOptional("New Model: "); err != nil {
		return err
	}
	raw, err := c.promptOptional("New Price: ")
	if err != nil {
		return err
	}
	if raw != nil {
		var price float64
		if _, err := fmt.Sscan(*raw, &price); err != nil {
			return fmt.Errorf("%q is not a number: %w", *raw, store.ErrInvalidInput)
		}
		upd.Price = &price
	}
	if upd.Installment, err = c.promptYesNo("Installment available (yes/no, empty to keep): "); err != nil {
		return err
	}

	car, err := c.svc.Inventory.UpdateCar(ctx, id, upd)
	if err != nil {
		return err
	}
	c.printf("\nCar %d updated: %s $%.2f\n", car.ID, car.Label(), car.Price)
	return nil
}

func (c *Console) locationInput() (service.LocationInput, error) {
	var (
		in  service.LocationInput
		err error
	)
	if in.Name, err = c.prompt("Name: "); err != nil {
		return in, err
	}
	if in.Location, err = c.prompt("Location: "); err != nil {
		return in, err
	}
	in.Phone, err = c.prompt("Phone: ")
	return in, err
}

func (c *Console) locationUpdate() (service.LocationUpdate, error) {
	c.printf("Leave a field empty to keep its value.\n")
	var (
		upd service.LocationUpdate
		err error
	)
	if upd.Name, err = c.promptOptional("New Name: "); err != nil {
		return upd, err
	}
	if upd.Location, err = c.promptOptional("New Location: "); err != nil {
		return upd, err
	}
	upd.Phone, err = c.promptOptional("New Phone: ")
	return upd, err
}

func (c *Console) addService(ctx context.Context, adminID int64) error {
	name, err := c.prompt("Service Name: ")
	if err != nil {
		return err
	}
	price, err := c.promptFloat("Price: ")
	if err != nil {
		return err
	}
	svc, err := c.svc.Inventory.AddService(ctx, adminID, service.ServiceInput{Name: name, Price: price})
	if err != nil {
		return err
	}
	c.printf("\nService added with ID %d\n", svc.ID)
	return nil
}

func (c *Console) updateService(ctx context.Context) error {
	id, err := c.promptInt("Service ID to update: ")
	if err != nil {
		return err
	}
	var upd service.ServiceUpdate
	if upd.Name, err = c.promptOptional("New Name (empty to keep): "); err != nil {
		return err
	}
	raw, err := c.promptOptional("New Price (empty to keep): ")
	if err != nil {
		return err
	}
	if raw != nil {
		var price float64
		if _, err := fmt.Sscan(*raw, &price); err != nil {
			return fmt.Errorf("%q is not a number: %w", *raw, store.ErrInvalidInput)
		}
		upd.Price = &price
	}
	svc, err := c.svc.Inventory.UpdateService(ctx, id, upd)
	if err != nil {
		return err
	}
	c.printf("\nService %d updated: %s $%.2f\n", svc.ID, svc.Name, svc.Price)
	return nil
}

func (c *Console) linkService(ctx context.Context, attach bool) error {
	garageID, err := c.promptInt("Garage ID: ")
	if err != nil {
		return err
	}
	serviceID, err := c.promptInt("Service ID: ")
	if err != nil {
		return err
	}
	if attach {
		_, err = c.svc.Inventory.AttachService(ctx, garageID, serviceID)
	} else {
		_, err = c.svc.Inventory.DetachService(ctx, garageID, serviceID)
	}
	if err != nil {
		return err
	}
	c.printf("\nGarage %d services updated\n", garageID)
	return nil
}

func (c *Console) customerDetails(_ context.Context) error {
	id, err := c.promptInt("Customer ID: ")
	if err != nil {
		return err
	}
	sum, err := c.svc.Reports.CustomerSummary(id)
	if err != nil {
		return err
	}
	c.printf("\nCustomer %s (ID: %d) | Phone: %s\n", sum.Customer.Username, sum.Customer.ID, sum.Customer.Phone)
	c.printf("  Purchases/Rentals: %d | Services: %d | Active reservations: %d\n",
		sum.Purchases, sum.Services, sum.ActiveReservations)
	c.printf("  Total spent: $%.2f\n", sum.TotalSpent)
	return nil
}

func (c *Console) processNext(ctx context.Context) error {
	next, ok := c.svc.Transactions.NextServiceRequest()
	if !ok {
		c.printf("\nService request queue is empty.\n")
		return nil
	}
	c.printf("\nNext request: #%d for customer %d (%s at %s)\n",
		next.RequestID, next.CustomerID, orID(next.ServiceName, "Service", next.ServiceID), orID(next.GarageName, "Garage", next.GarageID))

	done, ok, err := c.svc.Transactions.ProcessNextServiceRequest(ctx)
	if err != nil {
		return err
	}
	if !ok {
		c.printf("\nService request queue is empty.\n")
		return nil
	}
	c.printf("\nService request completed\n")
	c.printf("  Process ID: %d\n  Customer ID: %d\n", done.Process.ProcessID, done.Request.CustomerID)
	if done.Service != nil {
		c.printf("  Service: %s\n", done.Service.Name)
	}
	c.printf("  Amount: $%.2f\n", done.Process.Amount)
	return nil
}

func (c *Console) undoLast(ctx context.Context) error {
	top, ok := c.svc.Inventory.LastAction()
	if !ok {
		c.printf("\nAdmin action stack is empty.\n")
		return nil
	}
	c.printf("\nLast action: #%d %s %s #%d (%s)\n", top.ActionID, top.ActionType, top.EntityType, top.EntityID, top.Details)
	if yes, err := c.confirm("Pop this action? (y/n): "); err != nil || !yes {
		return err
	}

	report, ok, err := c.svc.Inventory.UndoLastAction(ctx)
	if err != nil {
		return err
	}
	if !ok {
		c.printf("\nAdmin action stack is empty.\n")
		return nil
	}
	a := report.Action
	c.printf("\nUndoing action: %s %s #%d\n", a.ActionType, a.EntityType, a.EntityID)
	if report.Advice != "" {
		c.printf("Note: %s\n", report.Advice)
	}
	c.printf("Action popped from stack\n")
	return nil
}

func (c *Console) clearActions(ctx context.Context, adminID int64) error {
	if _, ok := c.svc.Inventory.LastAction(); !ok {
		c.printf("\nAdmin action stack is empty.\n")
		return nil
	}
	if yes, err := c.confirm("Clear the whole action stack? (y/n): "); err != nil || !yes {
		return err
	}
	n, err := c.svc.Inventory.ClearActions(ctx, adminID)
	if err != nil {
		return err
	}
	c.printf("\nCleared %d action(s)\n", n)
	return nil
}

func (c *Console) cleanExpired(ctx context.Context) error {
	expired, err := c.svc.Transactions.SweepExpired(ctx)
	if err != nil {
		return err
	}
	c.printf("\nCleaned %d expired reservation(s)\n", len(expired))
	return nil
}

func (c *Console) exportReport(_ context.Context) error {
	if c.svc.Exporter == nil {
		c.printf("\nExport is not configured.\n")
		return nil
	}
	path, err := c.svc.Exporter.Export(c.svc.Reports.Export())
	if err != nil {
		return err
	}
	c.printf("\nReport written to %s\n", path)
	return nil
}

func (c *Console) printDeleted(kind string, res service.DeleteResult, warning string) {
	c.printf("\n%s %s deleted\n", kind, res.Name)
	if res.Warnings > 0 {
		c.printf("Warning: %d %s\n", res.Warnings, warning)
	}
}

func (c *Console) printCustomers(items []models.Customer) {
	if len(items) == 0 {
		c.printf("\nNo customers in the system.\n")
		return
	}
	c.printf("\nAll Customers (%d):\n", len(items))
	for _, cust := range items {
		c.printf("ID: %d | %s | %s\n", cust.ID, cust.Username, cust.Phone)
	}
}

func (c *Console) printActions(items []models.AdminAction) {
	if len(items) == 0 {
		c.printf("\nAdmin action stack is empty.\n")
		return
	}
	c.printf("\nAdmin Action Stack (%d, most recent first):\n", len(items))
	for _, a := range items {
		c.printf("#%d | %s %s #%d | %s | %s\n", a.ActionID, a.ActionType, a.EntityType, a.EntityID,
			a.Details, a.Timestamp.Format(models.TimeLayout))
	}
}

func (c *Console) printReservations(items []service.ReservationView) {
	if len(items) == 0 {
		c.printf("\nNo reservations in the system.\n")
		return
	}
	c.printf("\nReservations (%d):\n", len(items))
	for _, r := range items {
		c.printf("Reservation ID: %d\n  Customer: %s\n  Car: %s\n  Start: %s\n  Expires: %s\n",
			r.ReservationID, r.CustomerName, r.CarLabel,
			r.StartTime.Format(models.TimeLayout), r.ExpiryTime.Format(models.TimeLayout))
	}
}

func (c *Console) printStatistics(st models.Statistics) {
	c.printf("\n%s\nSYSTEM STATISTICS\n%s\n", rule, rule)
	c.printf("\nEntities:\n  Cars: %d (%d available, %d unavailable)\n  Customers: %d\n  Showrooms: %d\n  Garages: %d\n  Services: %d\n",
		st.Cars, st.AvailableCars, st.UnavailableCars, st.Customers, st.Showrooms, st.Garages, st.Services)
	c.printf("\nTransactions:\n  Purchases: %d\n  Rentals: %d\n  Service Processes: %d\n", st.Purchases, st.Rentals, st.ServiceJobs)
	c.printf("\nQueue & Stack:\n  Service Request Queue: %d pending\n  Admin Action Stack: %d actions\n", st.PendingRequests, st.LoggedActions)
	c.printf("\nReservations:\n  Active Reservations: %d\n", st.ActiveReservations)
	c.printf("\nRevenue:\n  Car Sales/Rentals: $%.2f\n  Services: $%.2f\n  Total: $%.2f\n", st.CarRevenue, st.ServiceRevenue, st.TotalRevenue)
}
