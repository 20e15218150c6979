package store

import (
	"sort"

	"dealership/internal/models"
)

type state struct {
	cars           map[int64]models.Car
	customers      map[int64]models.Customer
	showrooms      map[int64]models.Showroom
	garages        map[int64]models.Garage
	services       map[int64]models.Service
	reservations   map[int64]models.Reservation
	buyRent        []models.BuyRentProcess
	serviceHistory []models.ServiceProcess
	queue          *RequestQueue
	actions        *ActionLog
}

func newState() *state {
	return &state{
		cars:         make(map[int64]models.Car),
		customers:    make(map[int64]models.Customer),
		showrooms:    make(map[int64]models.Showroom),
		garages:      make(map[int64]models.Garage),
		services:     make(map[int64]models.Service),
		reservations: make(map[int64]models.Reservation),
		queue:        NewRequestQueue(),
		actions:      NewActionLog(),
	}
}

func stateFromSnapshot(snap *models.Snapshot) *state {
	st := newState()
	if snap == nil {
		return st
	}
	for _, c := range snap.Cars {
		st.cars[c.ID] = c
	}
	for _, c := range snap.Customers {
		st.customers[c.ID] = c
	}
	for _, s := range snap.Showrooms {
		st.showrooms[s.ID] = cloneShowroom(s)
	}
	for _, g := range snap.Garages {
		st.garages[g.ID] = cloneGarage(g)
	}
	for _, s := range snap.Services {
		st.services[s.ID] = s
	}
	for _, r := range snap.Reservations {
		st.reservations[r.ReservationID] = r
	}
	st.buyRent = append(st.buyRent, snap.BuyRent...)
	st.serviceHistory = append(st.serviceHistory, snap.ServiceHistory...)
	st.queue = newRequestQueueFrom(snap.ServiceRequests)
	st.actions = newActionLogFrom(snap.AdminActions)
	return st
}

// clone makes a deep copy so a unit of work can be discarded on failure.
func (st *state) clone() *state {
	c := &state{
		cars:           make(map[int64]models.Car, len(st.cars)),
		customers:      make(map[int64]models.Customer, len(st.customers)),
		showrooms:      make(map[int64]models.Showroom, len(st.showrooms)),
		garages:        make(map[int64]models.Garage, len(st.garages)),
		services:       make(map[int64]models.Service, len(st.services)),
		reservations:   make(map[int64]models.Reservation, len(st.reservations)),
		buyRent:        append([]models.BuyRentProcess(nil), st.buyRent...),
		serviceHistory: append([]models.ServiceProcess(nil), st.serviceHistory...),
		queue:          st.queue.clone(),
		actions:        st.actions.clone(),
	}
	for id, v := range st.cars {
		c.cars[id] = v
	}
	for id, v := range st.customers {
		c.customers[id] = v
	}
	for id, v := range st.showrooms {
		c.showrooms[id] = cloneShowroom(v)
	}
	for id, v := range st.garages {
		c.garages[id] = cloneGarage(v)
	}
	for id, v := range st.services {
		c.services[id] = v
	}
	for id, v := range st.reservations {
		c.reservations[id] = v
	}
	return c
}

// snapshot lists keyed collections in ascending id order.
func (st *state) snapshot() *models.Snapshot {
	return &models.Snapshot{
		Cars:            sortedValues(st.cars),
		Customers:       sortedValues(st.customers),
		Showrooms:       sortedValues(st.showrooms),
		Garages:         sortedValues(st.garages),
		Services:        sortedValues(st.services),
		BuyRent:         append([]models.BuyRentProcess(nil), st.buyRent...),
		ServiceHistory:  append([]models.ServiceProcess(nil), st.serviceHistory...),
		Reservations:    sortedValues(st.reservations),
		ServiceRequests: st.queue.Items(),
		AdminActions:    st.actions.Items(),
	}
}

// highestCustomerRef is the largest customer id referenced outside the
// customers collection.
func (st *state) highestCustomerRef() int64 {
	var highest int64
	for _, p := range st.buyRent {
		highest = max(highest, p.CustomerID)
	}
	for _, p := range st.serviceHistory {
		highest = max(highest, p.CustomerID)
	}
	for _, r := range st.reservations {
		highest = max(highest, r.CustomerID)
	}
	for _, req := range st.queue.Items() {
		highest = max(highest, req.CustomerID)
	}
	return highest
}

func sortedValues[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func maxKey[T any](m map[int64]T) int64 {
	var highest int64
	for id := range m {
		if id > highest {
			highest = id
		}
	}
	return highest
}

func cloneShowroom(s models.Showroom) models.Showroom {
	s.CarIDs = append([]int64(nil), s.CarIDs...)
	return s
}

func cloneGarage(g models.Garage) models.Garage {
	g.ServiceIDs = append([]int64(nil), g.ServiceIDs...)
	return g
}
