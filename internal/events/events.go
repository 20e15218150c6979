package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	EventCarSold             = "car_sold"
	EventCarRented           = "car_rented"
	EventCarReserved         = "car_reserved"
	EventReservationCanceled = "reservation_canceled"
	EventReservationsExpired = "reservations_expired"
	EventServiceBooked       = "service_booked"
	EventServiceProcessed    = "service_processed"
	EventAdminAction         = "admin_action"
)

// CarEventPayload covers purchases, rentals and reservations.
type CarEventPayload struct {
	CarID         int64     `json:"car_id"`
	CarLabel      string    `json:"car_label"`
	CustomerID    int64     `json:"customer_id"`
	Amount        float64   `json:"amount,omitempty"`
	ReservationID int64     `json:"reservation_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	At            time.Time `json:"at"`
}

type ServiceEventPayload struct {
	RequestID     int64     `json:"request_id"`
	CustomerID    int64     `json:"customer_id"`
	ServiceID     int64     `json:"service_id"`
	GarageID      int64     `json:"garage_id"`
	QueuePosition int       `json:"queue_position,omitempty"`
	Amount        float64   `json:"amount,omitempty"`
	At            time.Time `json:"at"`
}

type ReservationsExpiredPayload struct {
	ReservationIDs []int64   `json:"reservation_ids"`
	CarIDs         []int64   `json:"car_ids"`
	At             time.Time `json:"at"`
}

type AdminActionPayload struct {
	ActionID   int64  `json:"action_id"`
	AdminID    int64  `json:"admin_id"`
	ActionType string `json:"action_type"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	Details    string `json:"details,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every handler of the event type synchronously and joins
// their errors. A failing handler does not stop the others.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
