package service

import "dealership/internal/models"

// Receipt is the outcome of a purchase or rental.
type Receipt struct {
	Process models.BuyRentProcess `json:"process"`
	Car     models.Car            `json:"car"`
}

type ReservationReceipt struct {
	Reservation models.Reservation `json:"reservation"`
	Car         models.Car         `json:"car"`
	Hours       int                `json:"hours"`
}

type BookingResult struct {
	Request  models.ServiceRequest `json:"request"`
	Service  models.Service        `json:"service"`
	Garage   models.Garage         `json:"garage"`
	Position int                   `json:"position"`
}

// ProcessedRequest pairs a dequeued request with the record it produced.
type ProcessedRequest struct {
	Request models.ServiceRequest `json:"request"`
	Process models.ServiceProcess `json:"process"`
	Service *models.Service       `json:"service,omitempty"`
}

// QueuedRequest is a pending request with its 1-based queue position and
// resolved names (empty when the service or garage is gone).
type QueuedRequest struct {
	models.ServiceRequest
	Position    int    `json:"position"`
	ServiceName string `json:"service_name"`
	GarageName  string `json:"garage_name"`
}

// ReservationView resolves the customer and car of a reservation.
type ReservationView struct {
	models.Reservation
	CustomerName string `json:"customer_name"`
	CarLabel     string `json:"car_label"`
}

type HistoryEntry struct {
	models.BuyRentProcess
	CarLabel string `json:"car_label"`
}

type ServiceHistoryEntry struct {
	models.ServiceProcess
	ServiceName string `json:"service_name"`
	GarageName  string `json:"garage_name"`
}

type CustomerHistory struct {
	Customer      models.Customer       `json:"customer"`
	BuyRent       []HistoryEntry        `json:"buy_rent"`
	Services      []ServiceHistoryEntry `json:"services"`
	TotalBuyRent  float64               `json:"total_buy_rent"`
	TotalServices float64               `json:"total_services"`
	TotalSpent    float64               `json:"total_spent"`
}

type CustomerSummary struct {
	Customer           models.Customer `json:"customer"`
	Purchases          int             `json:"purchases"`
	Services           int             `json:"services"`
	ActiveReservations int             `json:"active_reservations"`
	TotalSpent         float64         `json:"total_spent"`
}

// UndoReport describes a popped admin action. Nothing is reverted.
type UndoReport struct {
	Action models.AdminAction `json:"action"`
	Advice string             `json:"advice"`
}

// DeleteResult carries warnings raised while deleting a location.
type DeleteResult struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Warnings int    `json:"warnings"`
}
