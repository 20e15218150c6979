package models

import "time"

type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionRent TransactionType = "rent"
)

func (t TransactionType) Valid() bool {
	return t == TransactionBuy || t == TransactionRent
}

type BuyRentProcess struct {
	ProcessID  int64           `json:"process_id"`
	CustomerID int64           `json:"customer_id"`
	Date       time.Time       `json:"date"`
	Amount     float64         `json:"amount"`
	CarID      int64           `json:"car_id"`
	Type       TransactionType `json:"type"`
}

type ServiceProcess struct {
	ProcessID  int64     `json:"process_id"`
	CustomerID int64     `json:"customer_id"`
	Date       time.Time `json:"date"`
	Amount     float64   `json:"amount"`
	ServiceID  int64     `json:"service_id"`
	GarageID   int64     `json:"garage_id"`
}

type Reservation struct {
	ReservationID int64     `json:"reservation_id"`
	CustomerID    int64     `json:"customer_id"`
	CarID         int64     `json:"car_id"`
	StartTime     time.Time `json:"start_time"`
	ExpiryTime    time.Time `json:"expiry_time"`
}

// IsExpired compares at second resolution, matching the persisted format.
func (r Reservation) IsExpired(now time.Time) bool {
	return !r.ExpiryTime.Truncate(time.Second).After(now.Truncate(time.Second))
}
