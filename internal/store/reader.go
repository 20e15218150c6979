package store

import (
	"fmt"
	"strings"

	"dealership/internal/models"
)

// Reader exposes lookups over one consistent state. Returned values are copies.
type Reader struct {
	st *state
}

func (r *Reader) Car(id int64) (models.Car, error) {
	c, ok := r.st.cars[id]
	if !ok {
		return models.Car{}, fmt.Errorf("car %d: %w", id, ErrNotFound)
	}
	return c, nil
}

func (r *Reader) Cars() []models.Car {
	return sortedValues(r.st.cars)
}

// SearchCars returns cars matching f in id order.
func (r *Reader) SearchCars(f models.CarFilter) []models.Car {
	var out []models.Car
	for _, c := range sortedValues(r.st.cars) {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Reader) Customer(id int64) (models.Customer, error) {
	c, ok := r.st.customers[id]
	if !ok {
		return models.Customer{}, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	return c, nil
}

func (r *Reader) Customers() []models.Customer {
	return sortedValues(r.st.customers)
}

// CustomerByUsername matches case-insensitively.
func (r *Reader) CustomerByUsername(username string) (models.Customer, bool) {
	for _, c := range sortedValues(r.st.customers) {
		if strings.EqualFold(c.Username, strings.TrimSpace(username)) {
			return c, true
		}
	}
	return models.Customer{}, false
}

func (r *Reader) Showroom(id int64) (models.Showroom, error) {
	s, ok := r.st.showrooms[id]
	if !ok {
		return models.Showroom{}, fmt.Errorf("showroom %d: %w", id, ErrNotFound)
	}
	return cloneShowroom(s), nil
}

func (r *Reader) Showrooms() []models.Showroom {
	out := sortedValues(r.st.showrooms)
	for i := range out {
		out[i] = cloneShowroom(out[i])
	}
	return out
}

// CarsInShowroom resolves the showroom's car ids, skipping dangling ones.
func (r *Reader) CarsInShowroom(showroomID int64) ([]models.Car, error) {
	s, err := r.Showroom(showroomID)
	if err != nil {
		return nil, err
	}
	cars := make([]models.Car, 0, len(s.CarIDs))
	for _, id := range s.CarIDs {
		if c, ok := r.st.cars[id]; ok {
			cars = append(cars, c)
		}
	}
	return cars, nil
}

func (r *Reader) Garage(id int64) (models.Garage, error) {
	g, ok := r.st.garages[id]
	if !ok {
		return models.Garage{}, fmt.Errorf("garage %d: %w", id, ErrNotFound)
	}
	return cloneGarage(g), nil
}

func (r *Reader) Garages() []models.Garage {
	out := sortedValues(r.st.garages)
	for i := range out {
		out[i] = cloneGarage(out[i])
	}
	return out
}

// ServicesInGarage resolves the garage's service ids, skipping dangling ones.
func (r *Reader) ServicesInGarage(garageID int64) ([]models.Service, error) {
	g, err := r.Garage(garageID)
	if err != nil {
		return nil, err
	}
	services := make([]models.Service, 0, len(g.ServiceIDs))
	for _, id := range g.ServiceIDs {
		if s, ok := r.st.services[id]; ok {
			services = append(services, s)
		}
	}
	return services, nil
}

func (r *Reader) Service(id int64) (models.Service, error) {
	s, ok := r.st.services[id]
	if !ok {
		return models.Service{}, fmt.Errorf("service %d: %w", id, ErrNotFound)
	}
	return s, nil
}

func (r *Reader) Services() []models.Service {
	return sortedValues(r.st.services)
}

func (r *Reader) Reservation(id int64) (models.Reservation, error) {
	res, ok := r.st.reservations[id]
	if !ok {
		return models.Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	return res, nil
}

func (r *Reader) Reservations() []models.Reservation {
	return sortedValues(r.st.reservations)
}

func (r *Reader) ReservationsFor(customerID int64) []models.Reservation {
	var out []models.Reservation
	for _, res := range sortedValues(r.st.reservations) {
		if res.CustomerID == customerID {
			out = append(out, res)
		}
	}
	return out
}

// BuyRentHistory is in insertion order.
func (r *Reader) BuyRentHistory() []models.BuyRentProcess {
	return append([]models.BuyRentProcess(nil), r.st.buyRent...)
}

func (r *Reader) BuyRentFor(customerID int64) []models.BuyRentProcess {
	var out []models.BuyRentProcess
	for _, p := range r.st.buyRent {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out
}

// ServiceHistory is in insertion order.
func (r *Reader) ServiceHistory() []models.ServiceProcess {
	return append([]models.ServiceProcess(nil), r.st.serviceHistory...)
}

func (r *Reader) ServiceHistoryFor(customerID int64) []models.ServiceProcess {
	var out []models.ServiceProcess
	for _, p := range r.st.serviceHistory {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out
}

// QueuedRequests returns the service request queue head first.
func (r *Reader) QueuedRequests() []models.ServiceRequest {
	return r.st.queue.Items()
}

func (r *Reader) QueuedFor(customerID int64) []models.ServiceRequest {
	return r.st.queue.ForCustomer(customerID)
}

func (r *Reader) PeekRequest() (models.ServiceRequest, bool) {
	return r.st.queue.Peek()
}

func (r *Reader) QueueLen() int {
	return r.st.queue.Len()
}

func (r *Reader) QueuePosition(requestID int64) int {
	return r.st.queue.Position(requestID)
}

// AdminActions returns the action log bottom first.
func (r *Reader) AdminActions() []models.AdminAction {
	return r.st.actions.Items()
}

func (r *Reader) PeekAction() (models.AdminAction, bool) {
	return r.st.actions.Peek()
}

func (r *Reader) ActionsLen() int {
	return r.st.actions.Len()
}
