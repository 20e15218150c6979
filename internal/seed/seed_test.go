package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
showrooms:
  - id: 1
    name: Central
    location: Downtown
    car_ids: [1, 2]
garages:
  - id: 1
    name: North
    service_ids: [1]
services:
  - id: 1
    name: Oil change
    price: 50
cars:
  - {id: 1, make: Toyota, model: Corolla, year: 2020, price: 15000, showroom_id: 1, available: true}
  - {id: 2, make: Honda, model: Civic, year: 2021, price: 18000, installment: true, showroom_id: 1, available: true}
customers:
  - id: 1
    username: alice
    password: secret
`

type upperHasher struct{}

func (upperHasher) HashPassword(p string) (string, error) { return "$2h$" + p, nil }

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	return path
}

func TestLoadAndApply(t *testing.T) {
	data, err := Load(writeSeed(t))
	require.NoError(t, err)
	require.Len(t, data.Cars, 2)
	assert.True(t, data.Cars[1].Installment)

	logger := zerolog.Nop()
	st := store.New(nil)
	applied, err := Apply(context.Background(), st, data, upperHasher{}, &logger)
	require.NoError(t, err)
	assert.True(t, applied)

	_ = st.View(func(r *store.Reader) error {
		room, err := r.Showroom(1)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, room.CarIDs)

		c, ok := r.CustomerByUsername("alice")
		require.True(t, ok)
		assert.Equal(t, "$2h$secret", c.PasswordHash)
		return nil
	})
}

func TestApply_SkipsNonEmptyStore(t *testing.T) {
	logger := zerolog.Nop()
	st := store.New(nil)
	require.NoError(t, st.Update(context.Background(), func(tx *store.Tx) error {
		return tx.InsertService(models.Service{ID: 9, Name: "Wash"})
	}))

	applied, err := Apply(context.Background(), st, &Data{Services: []models.Service{{ID: 1, Name: "Oil"}}}, upperHasher{}, &logger)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, st.Snapshot().Services, 1)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
