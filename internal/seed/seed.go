package seed

import (
	"context"
	"fmt"
	"os"

	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// Customer is a seed account; the password is hashed on import.
type Customer struct {
	ID       int64  `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Phone    string `yaml:"phone"`
}

// Data is the starter catalogue written into an empty store.
type Data struct {
	Showrooms []models.Showroom `yaml:"showrooms"`
	Garages   []models.Garage   `yaml:"garages"`
	Services  []models.Service  `yaml:"services"`
	Cars      []models.Car      `yaml:"cars"`
	Customers []Customer        `yaml:"customers"`
}

type Hasher interface {
	HashPassword(password string) (string, error)
}

func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &data, nil
}

// Apply writes the data in one unit of work, only when the store holds no
// records. It reports whether anything was written.
func Apply(ctx context.Context, st *store.Store, data *Data, hasher Hasher, logger *zerolog.Logger) (bool, error) {
	if data == nil || !st.IsEmpty() {
		return false, nil
	}

	customers := make([]models.Customer, 0, len(data.Customers))
	for _, c := range data.Customers {
		hash, err := hasher.HashPassword(c.Password)
		if err != nil {
			return false, fmt.Errorf("hash password for %q: %w", c.Username, err)
		}
		customers = append(customers, models.Customer{ID: c.ID, Username: c.Username, PasswordHash: hash, Phone: c.Phone})
	}

	err := st.Update(ctx, func(tx *store.Tx) error {
		for _, s := range data.Showrooms {
			if err := tx.InsertShowroom(s); err != nil {
				return err
			}
		}
		for _, g := range data.Garages {
			if err := tx.InsertGarage(g); err != nil {
				return err
			}
		}
		for _, s := range data.Services {
			if err := tx.InsertService(s); err != nil {
				return err
			}
		}
		for _, c := range data.Cars {
			if err := tx.InsertCar(c); err != nil {
				return err
			}
		}
		for _, c := range customers {
			if err := tx.InsertCustomer(c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("apply seed: %w", err)
	}

	logger.Info().
		Int("showrooms", len(data.Showrooms)).
		Int("garages", len(data.Garages)).
		Int("services", len(data.Services)).
		Int("cars", len(data.Cars)).
		Int("customers", len(customers)).
		Msg("Seed data applied")
	return true, nil
}
