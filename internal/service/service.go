package service

import (
	"errors"

	"dealership/internal/domain"
	"dealership/internal/metrics"
	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/rs/zerolog"
)

// PasswordHasher hashes and verifies customer passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPassword(password, hash string) bool
}

// publish sends an event; failures are logged, never returned.
func publish(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

// observe refreshes the queue and stack gauges after a unit of work.
func observe(st *store.Store, err error) {
	if errors.Is(err, store.ErrPersist) {
		metrics.IncPersistFailure()
	}
	_ = st.View(func(r *store.Reader) error {
		metrics.SetQueueDepth(r.QueueLen())
		metrics.SetActionStackSize(r.ActionsLen())
		return nil
	})
}

func logAction(logger *zerolog.Logger, a models.AdminAction) {
	logger.Info().
		Int64("action_id", a.ActionID).
		Int64("admin_id", a.AdminID).
		Str("action", a.ActionType).
		Str("entity", a.EntityType).
		Int64("entity_id", a.EntityID).
		Msg("Admin action recorded")
}
