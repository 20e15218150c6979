package service

import (
	"context"
	"fmt"
	"strings"

	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/rs/zerolog"
)

// ServiceFilter searches the service catalogue. A nil MaxPrice means any price.
type ServiceFilter struct {
	Name     string   `json:"name,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

func (f ServiceFilter) matches(s models.Service) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(strings.TrimSpace(f.Name))) {
		return false
	}
	return f.MaxPrice == nil || s.Price <= *f.MaxPrice
}

// CustomerService is the customer side: accounts, catalogue browsing and history.
type CustomerService struct {
	store  *store.Store
	hasher PasswordHasher
	logger *zerolog.Logger
}

func NewCustomerService(st *store.Store, hasher PasswordHasher, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{store: st, hasher: hasher, logger: logger}
}

// Register creates an account. Usernames are unique ignoring case.
func (s *CustomerService) Register(ctx context.Context, username, password, phone string) (models.Customer, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Customer{}, fmt.Errorf("username and password are required: %w", store.ErrInvalidInput)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return models.Customer{}, fmt.Errorf("hash password: %w", err)
	}

	var customer models.Customer
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		if _, taken := tx.CustomerByUsername(username); taken {
			return fmt.Errorf("username %q: %w", username, store.ErrUsernameTaken)
		}
		customer = models.Customer{
			ID:           tx.NextID(models.CollectionCustomers),
			Username:     username,
			PasswordHash: hash,
			Phone:        strings.TrimSpace(phone),
		}
		return tx.InsertCustomer(customer)
	})
	observe(s.store, err)
	if err != nil {
		return models.Customer{}, err
	}

	s.logger.Info().Int64("customer_id", customer.ID).Str("username", customer.Username).Msg("Customer registered")
	return customer, nil
}

// Authenticate checks the credentials. A password stored in plain text is
// replaced with a hash on the first successful login.
func (s *CustomerService) Authenticate(ctx context.Context, username, password string) (models.Customer, error) {
	var (
		customer models.Customer
		found    bool
	)
	_ = s.store.View(func(r *store.Reader) error {
		customer, found = r.CustomerByUsername(strings.TrimSpace(username))
		return nil
	})
	if !found || !s.hasher.CheckPassword(password, customer.PasswordHash) {
		return models.Customer{}, store.ErrInvalidCredentials
	}

	if !strings.HasPrefix(customer.PasswordHash, "$2") {
		s.rehash(ctx, customer, password)
	}
	return customer, nil
}

func (s *CustomerService) rehash(ctx context.Context, customer models.Customer, password string) {
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		s.logger.Warn().Err(err).Int64("customer_id", customer.ID).Msg("Failed to hash legacy password")
		return
	}
	customer.PasswordHash = hash
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		return tx.UpdateCustomer(customer)
	})
	observe(s.store, err)
	if err != nil {
		s.logger.Warn().Err(err).Int64("customer_id", customer.ID).Msg("Failed to store rehashed password")
		return
	}
	s.logger.Info().Int64("customer_id", customer.ID).Msg("Legacy password rehashed")
}

func (s *CustomerService) Customer(id int64) (models.Customer, error) {
	var customer models.Customer
	err := s.store.View(func(r *store.Reader) error {
		var err error
		customer, err = r.Customer(id)
		return err
	})
	return customer, err
}

// SearchCars applies the filter; customers see only available cars unless
// the filter says otherwise.
func (s *CustomerService) SearchCars(f models.CarFilter) []models.Car {
	if f.Available == nil {
		available := true
		f.Available = &available
	}
	var cars []models.Car
	_ = s.store.View(func(r *store.Reader) error {
		cars = r.SearchCars(f)
		return nil
	})
	return cars
}

func (s *CustomerService) CarDetails(id int64) (models.Car, error) {
	var car models.Car
	err := s.store.View(func(r *store.Reader) error {
		var err error
		car, err = r.Car(id)
		return err
	})
	return car, err
}

func (s *CustomerService) Showrooms() []models.Showroom {
	return s.SearchShowrooms(models.LocationFilter{})
}

func (s *CustomerService) SearchShowrooms(f models.LocationFilter) []models.Showroom {
	var out []models.Showroom
	_ = s.store.View(func(r *store.Reader) error {
		for _, sh := range r.Showrooms() {
			if f.Matches(sh.Name, sh.Location) {
				out = append(out, sh)
			}
		}
		return nil
	})
	return out
}

// CarsInShowroom lists the showroom's cars that can still be bought.
func (s *CustomerService) CarsInShowroom(showroomID int64) ([]models.Car, error) {
	var out []models.Car
	err := s.store.View(func(r *store.Reader) error {
		cars, err := r.CarsInShowroom(showroomID)
		if err != nil {
			return err
		}
		for _, c := range cars {
			if c.Available {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}

func (s *CustomerService) Garages() []models.Garage {
	return s.SearchGarages(models.LocationFilter{})
}

func (s *CustomerService) SearchGarages(f models.LocationFilter) []models.Garage {
	var out []models.Garage
	_ = s.store.View(func(r *store.Reader) error {
		for _, g := range r.Garages() {
			if f.Matches(g.Name, g.Location) {
				out = append(out, g)
			}
		}
		return nil
	})
	return out
}

func (s *CustomerService) ServicesInGarage(garageID int64) ([]models.Service, error) {
	var out []models.Service
	err := s.store.View(func(r *store.Reader) error {
		var err error
		out, err = r.ServicesInGarage(garageID)
		return err
	})
	return out, err
}

func (s *CustomerService) SearchServices(f ServiceFilter) []models.Service {
	var out []models.Service
	_ = s.store.View(func(r *store.Reader) error {
		for _, svc := range r.Services() {
			if f.matches(svc) {
				out = append(out, svc)
			}
		}
		return nil
	})
	return out
}

// History collects the customer's purchases, rentals and completed services.
func (s *CustomerService) History(customerID int64) (*CustomerHistory, error) {
	var h CustomerHistory
	err := s.store.View(func(r *store.Reader) error {
		var err error
		if h.Customer, err = r.Customer(customerID); err != nil {
			return err
		}

		for _, p := range r.BuyRentFor(customerID) {
			entry := HistoryEntry{BuyRentProcess: p}
			if car, err := r.Car(p.CarID); err == nil {
				entry.CarLabel = car.Label()
			}
			h.BuyRent = append(h.BuyRent, entry)
			h.TotalBuyRent += p.Amount
		}

		for _, p := range r.ServiceHistoryFor(customerID) {
			entry := ServiceHistoryEntry{ServiceProcess: p}
			if svc, err := r.Service(p.ServiceID); err == nil {
				entry.ServiceName = svc.Name
			}
			if g, err := r.Garage(p.GarageID); err == nil {
				entry.GarageName = g.Name
			}
			h.Services = append(h.Services, entry)
			h.TotalServices += p.Amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.TotalSpent = h.TotalBuyRent + h.TotalServices
	return &h, nil
}
