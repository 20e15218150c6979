package store

import (
	"context"
	"time"

	"dealership/internal/models"
)

// SweepExpired removes every reservation expiring at or before now and makes
// its car available. A reservation whose car is gone is still removed.
func (tx *Tx) SweepExpired(now time.Time) []models.Reservation {
	var expired []models.Reservation
	for _, r := range sortedValues(tx.st.reservations) {
		if !r.IsExpired(now) {
			continue
		}
		if c, ok := tx.st.cars[r.CarID]; ok {
			c.Available = true
			tx.st.cars[c.ID] = c
		}
		delete(tx.st.reservations, r.ReservationID)
		expired = append(expired, r)
	}
	if len(expired) > 0 {
		tx.mark(models.CollectionReservations, models.CollectionCars)
	}
	return expired
}

// SweepExpired runs the expiry sweep as its own unit of work.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	var expired []models.Reservation
	err := s.Update(ctx, func(tx *Tx) error {
		expired = tx.SweepExpired(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		s.logger.Info().Int("reclaimed", len(expired)).Msg("expired reservations cleaned")
	}
	return expired, nil
}
