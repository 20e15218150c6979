package worker

import (
	"context"

	"github.com/rs/zerolog"
)

// SweepFunc reclaims expired reservations and reports how many it removed.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper is the background trigger of the reservation expiry sweep.
type Sweeper struct {
	sweep  SweepFunc
	logger *zerolog.Logger
}

func NewSweeper(sweep SweepFunc, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{sweep: sweep, logger: logger}
}

// Run performs one sweep. It matches the Job signature.
func (s *Sweeper) Run(ctx context.Context) error {
	n, err := s.sweep(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info().Int("reclaimed", n).Msg("Background sweep reclaimed reservations")
	} else {
		s.logger.Debug().Msg("Background sweep found nothing to reclaim")
	}
	return nil
}
