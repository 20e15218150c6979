package models

import "time"

const (
	RequestPending   = "pending"
	RequestProcessed = "processed"
)

const (
	ActionAdd    = "add"
	ActionDelete = "delete"
)

// Entity kinds recorded in admin actions.
const (
	EntityCar      = "car"
	EntityShowroom = "showroom"
	EntityGarage   = "garage"
	EntityService  = "service"
	EntityCustomer = "customer"
)

type ServiceRequest struct {
	RequestID  int64     `json:"request_id"`
	CustomerID int64     `json:"customer_id"`
	ServiceID  int64     `json:"service_id"`
	GarageID   int64     `json:"garage_id"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
}

type AdminAction struct {
	ActionID   int64     `json:"action_id"`
	AdminID    int64     `json:"admin_id"`
	ActionType string    `json:"action_type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Timestamp  time.Time `json:"timestamp"`
	Details    string    `json:"details"`
}
