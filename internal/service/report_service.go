package service

import (
	"dealership/internal/models"
	"dealership/internal/store"
)

type ReportService struct {
	store *store.Store
}

func NewReportService(st *store.Store) *ReportService {
	return &ReportService{store: st}
}

// Statistics counts records and sums revenue. A reservation is active while
// it has not reached its expiry time.
func (s *ReportService) Statistics() models.Statistics {
	now := s.store.Now()

	var st models.Statistics
	_ = s.store.View(func(r *store.Reader) error {
		cars := r.Cars()
		st.Cars = len(cars)
		for _, c := range cars {
			if c.Available {
				st.AvailableCars++
			} else {
				st.UnavailableCars++
			}
		}
		st.Customers = len(r.Customers())
		st.Showrooms = len(r.Showrooms())
		st.Garages = len(r.Garages())
		st.Services = len(r.Services())

		for _, p := range r.BuyRentHistory() {
			switch p.Type {
			case models.TransactionBuy:
				st.Purchases++
			case models.TransactionRent:
				st.Rentals++
			}
			st.CarRevenue += p.Amount
		}
		for _, p := range r.ServiceHistory() {
			st.ServiceJobs++
			st.ServiceRevenue += p.Amount
		}
		for _, res := range r.Reservations() {
			if !res.IsExpired(now) {
				st.ActiveReservations++
			}
		}

		st.PendingRequests = r.QueueLen()
		st.LoggedActions = r.ActionsLen()
		return nil
	})
	st.TotalRevenue = st.CarRevenue + st.ServiceRevenue
	return st
}

// CustomerSummary is the admin view of one customer.
func (s *ReportService) CustomerSummary(customerID int64) (*CustomerSummary, error) {
	now := s.store.Now()

	var sum CustomerSummary
	err := s.store.View(func(r *store.Reader) error {
		var err error
		if sum.Customer, err = r.Customer(customerID); err != nil {
			return err
		}
		for _, p := range r.BuyRentFor(customerID) {
			sum.Purchases++
			sum.TotalSpent += p.Amount
		}
		for _, p := range r.ServiceHistoryFor(customerID) {
			sum.Services++
			sum.TotalSpent += p.Amount
		}
		for _, res := range r.ReservationsFor(customerID) {
			if !res.IsExpired(now) {
				sum.ActiveReservations++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// Export returns everything a report workbook needs in one consistent read.
func (s *ReportService) Export() (models.Statistics, []models.BuyRentProcess, []models.ServiceProcess) {
	stats := s.Statistics()
	var (
		buyRent  []models.BuyRentProcess
		services []models.ServiceProcess
	)
	_ = s.store.View(func(r *store.Reader) error {
		buyRent = r.BuyRentHistory()
		services = r.ServiceHistory()
		return nil
	})
	return stats, buyRent, services
}
