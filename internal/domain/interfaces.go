package domain

import (
	"context"
	"time"

	"dealership/internal/models"
)

// Persister flushes and reloads the record collections.
// Save receives the whole snapshot but writes only the named collections;
// with no names it writes all of them.
type Persister interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot, collections ...models.Collection) error
	Close() error
}

// Backupper writes a point-in-time copy of the persisted data into dir and
// returns the path it created.
type Backupper interface {
	Backup(ctx context.Context, dir string) (string, error)
}

type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type Notifier interface {
	NotifyServiceBooked(ctx context.Context, req models.ServiceRequest, serviceName, garageName string)
	NotifyReservationsExpired(ctx context.Context, expired []models.Reservation)
}
