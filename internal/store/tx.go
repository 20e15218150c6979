package store

import (
	"fmt"
	"time"

	"dealership/internal/models"
)

// Tx is a unit of work handed to Update. Every mutator records the
// collections it touched so they are persisted together.
type Tx struct {
	Reader
	now   time.Time
	dirty map[models.Collection]bool
}

func newTx(st *state, now time.Time) *Tx {
	return &Tx{Reader: Reader{st: st}, now: now, dirty: make(map[models.Collection]bool)}
}

// Now is the timestamp shared by every record written in this unit of work.
func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) mark(cols ...models.Collection) {
	for _, c := range cols {
		tx.dirty[c] = true
	}
}

func (tx *Tx) collections() []models.Collection {
	var out []models.Collection
	for _, c := range models.AllCollections {
		if tx.dirty[c] {
			out = append(out, c)
		}
	}
	return out
}

// NextID is one past the highest id in the collection, 1 when it is empty.
// Customer ids also stay above every id still referenced by history,
// reservations or the queue, so a new account never inherits old records.
func (tx *Tx) NextID(c models.Collection) int64 {
	st := tx.st
	switch c {
	case models.CollectionCars:
		return maxKey(st.cars) + 1
	case models.CollectionCustomers:
		return max(maxKey(st.customers), st.highestCustomerRef()) + 1
	case models.CollectionShowrooms:
		return maxKey(st.showrooms) + 1
	case models.CollectionGarages:
		return maxKey(st.garages) + 1
	case models.CollectionServices:
		return maxKey(st.services) + 1
	case models.CollectionReservations:
		return maxKey(st.reservations) + 1
	case models.CollectionBuyRent:
		var highest int64
		for _, p := range st.buyRent {
			highest = max(highest, p.ProcessID)
		}
		return highest + 1
	case models.CollectionServiceProcess:
		var highest int64
		for _, p := range st.serviceHistory {
			highest = max(highest, p.ProcessID)
		}
		return highest + 1
	case models.CollectionServiceRequests:
		return st.queue.nextID
	case models.CollectionAdminActions:
		return st.actions.nextID
	}
	return 1
}

// Cars

func (tx *Tx) InsertCar(c models.Car) error {
	if _, exists := tx.st.cars[c.ID]; exists {
		return fmt.Errorf("car %d: %w", c.ID, ErrDuplicateID)
	}
	tx.st.cars[c.ID] = c
	tx.mark(models.CollectionCars)
	return nil
}

func (tx *Tx) UpdateCar(c models.Car) error {
	if _, exists := tx.st.cars[c.ID]; !exists {
		return fmt.Errorf("car %d: %w", c.ID, ErrNotFound)
	}
	tx.st.cars[c.ID] = c
	tx.mark(models.CollectionCars)
	return nil
}

func (tx *Tx) SetCarAvailable(id int64, available bool) error {
	c, err := tx.Car(id)
	if err != nil {
		return err
	}
	c.Available = available
	return tx.UpdateCar(c)
}

// DeleteCar also drops the car from its showroom and removes the
// reservations holding it, so a later car with the same id starts clean.
func (tx *Tx) DeleteCar(id int64) (models.Car, error) {
	c, err := tx.Car(id)
	if err != nil {
		return models.Car{}, err
	}
	if s, ok := tx.st.showrooms[c.ShowroomID]; ok {
		s = cloneShowroom(s)
		if s.RemoveCar(id) {
			tx.st.showrooms[s.ID] = s
			tx.mark(models.CollectionShowrooms)
		}
	}
	for resID, r := range tx.st.reservations {
		if r.CarID == id {
			delete(tx.st.reservations, resID)
			tx.mark(models.CollectionReservations)
		}
	}
	delete(tx.st.cars, id)
	tx.mark(models.CollectionCars)
	return c, nil
}

// Customers

func (tx *Tx) InsertCustomer(c models.Customer) error {
	if _, exists := tx.st.customers[c.ID]; exists {
		return fmt.Errorf("customer %d: %w", c.ID, ErrDuplicateID)
	}
	tx.st.customers[c.ID] = c
	tx.mark(models.CollectionCustomers)
	return nil
}

func (tx *Tx) UpdateCustomer(c models.Customer) error {
	if _, exists := tx.st.customers[c.ID]; !exists {
		return fmt.Errorf("customer %d: %w", c.ID, ErrNotFound)
	}
	tx.st.customers[c.ID] = c
	tx.mark(models.CollectionCustomers)
	return nil
}

func (tx *Tx) DeleteCustomer(id int64) (models.Customer, error) {
	c, err := tx.Customer(id)
	if err != nil {
		return models.Customer{}, err
	}
	delete(tx.st.customers, id)
	tx.mark(models.CollectionCustomers)
	return c, nil
}

// Showrooms

func (tx *Tx) InsertShowroom(s models.Showroom) error {
	if _, exists := tx.st.showrooms[s.ID]; exists {
		return fmt.Errorf("showroom %d: %w", s.ID, ErrDuplicateID)
	}
	tx.st.showrooms[s.ID] = cloneShowroom(s)
	tx.mark(models.CollectionShowrooms)
	return nil
}

func (tx *Tx) UpdateShowroom(s models.Showroom) error {
	if _, exists := tx.st.showrooms[s.ID]; !exists {
		return fmt.Errorf("showroom %d: %w", s.ID, ErrNotFound)
	}
	tx.st.showrooms[s.ID] = cloneShowroom(s)
	tx.mark(models.CollectionShowrooms)
	return nil
}

// DeleteShowroom leaves the cars that pointed at it in place.
func (tx *Tx) DeleteShowroom(id int64) (models.Showroom, error) {
	s, err := tx.Showroom(id)
	if err != nil {
		return models.Showroom{}, err
	}
	delete(tx.st.showrooms, id)
	tx.mark(models.CollectionShowrooms)
	return s, nil
}

// Garages

func (tx *Tx) InsertGarage(g models.Garage) error {
	if _, exists := tx.st.garages[g.ID]; exists {
		return fmt.Errorf("garage %d: %w", g.ID, ErrDuplicateID)
	}
	tx.st.garages[g.ID] = cloneGarage(g)
	tx.mark(models.CollectionGarages)
	return nil
}

func (tx *Tx) UpdateGarage(g models.Garage) error {
	if _, exists := tx.st.garages[g.ID]; !exists {
		return fmt.Errorf("garage %d: %w", g.ID, ErrNotFound)
	}
	tx.st.garages[g.ID] = cloneGarage(g)
	tx.mark(models.CollectionGarages)
	return nil
}

func (tx *Tx) DeleteGarage(id int64) (models.Garage, error) {
	g, err := tx.Garage(id)
	if err != nil {
		return models.Garage{}, err
	}
	delete(tx.st.garages, id)
	tx.mark(models.CollectionGarages)
	return g, nil
}

// Services

func (tx *Tx) InsertService(s models.Service) error {
	if _, exists := tx.st.services[s.ID]; exists {
		return fmt.Errorf("service %d: %w", s.ID, ErrDuplicateID)
	}
	tx.st.services[s.ID] = s
	tx.mark(models.CollectionServices)
	return nil
}

func (tx *Tx) UpdateService(s models.Service) error {
	if _, exists := tx.st.services[s.ID]; !exists {
		return fmt.Errorf("service %d: %w", s.ID, ErrNotFound)
	}
	tx.st.services[s.ID] = s
	tx.mark(models.CollectionServices)
	return nil
}

// DeleteService keeps garage links and queued requests; they resolve to
// nothing (or a zero price) afterwards.
func (tx *Tx) DeleteService(id int64) (models.Service, error) {
	s, err := tx.Service(id)
	if err != nil {
		return models.Service{}, err
	}
	delete(tx.st.services, id)
	tx.mark(models.CollectionServices)
	return s, nil
}

// Reservations

func (tx *Tx) InsertReservation(r models.Reservation) error {
	if _, exists := tx.st.reservations[r.ReservationID]; exists {
		return fmt.Errorf("reservation %d: %w", r.ReservationID, ErrDuplicateID)
	}
	tx.st.reservations[r.ReservationID] = r
	tx.mark(models.CollectionReservations)
	return nil
}

// DeleteReservation releases the held car when it still exists.
func (tx *Tx) DeleteReservation(id int64) (models.Reservation, error) {
	r, err := tx.Reservation(id)
	if err != nil {
		return models.Reservation{}, err
	}
	if c, ok := tx.st.cars[r.CarID]; ok {
		c.Available = true
		tx.st.cars[c.ID] = c
		tx.mark(models.CollectionCars)
	}
	delete(tx.st.reservations, id)
	tx.mark(models.CollectionReservations)
	return r, nil
}

// History

func (tx *Tx) AppendBuyRent(p models.BuyRentProcess) {
	tx.st.buyRent = append(tx.st.buyRent, p)
	tx.mark(models.CollectionBuyRent)
}

func (tx *Tx) AppendServiceProcess(p models.ServiceProcess) {
	tx.st.serviceHistory = append(tx.st.serviceHistory, p)
	tx.mark(models.CollectionServiceProcess)
}

// Queue and action log

func (tx *Tx) Enqueue(customerID, serviceID, garageID int64) models.ServiceRequest {
	tx.mark(models.CollectionServiceRequests)
	return tx.st.queue.Enqueue(customerID, serviceID, garageID, tx.now)
}

func (tx *Tx) Dequeue() (models.ServiceRequest, bool) {
	req, ok := tx.st.queue.Dequeue()
	if ok {
		tx.mark(models.CollectionServiceRequests)
	}
	return req, ok
}

func (tx *Tx) PushAction(adminID int64, actionType, entityType string, entityID int64, details string) models.AdminAction {
	tx.mark(models.CollectionAdminActions)
	return tx.st.actions.Push(adminID, actionType, entityType, entityID, details, tx.now)
}

func (tx *Tx) PopAction() (models.AdminAction, bool) {
	action, ok := tx.st.actions.Pop()
	if ok {
		tx.mark(models.CollectionAdminActions)
	}
	return action, ok
}

func (tx *Tx) ClearActions() {
	tx.st.actions.Clear()
	tx.mark(models.CollectionAdminActions)
}
