package models

// Collection names one persisted collection. The string value doubles as the
// CSV file stem and the SQLite table name.
type Collection string

const (
	CollectionCars            Collection = "cars"
	CollectionCustomers       Collection = "customers"
	CollectionShowrooms       Collection = "showrooms"
	CollectionGarages         Collection = "garages"
	CollectionServices        Collection = "services"
	CollectionBuyRent         Collection = "buy_rent_process"
	CollectionServiceProcess  Collection = "service_process"
	CollectionReservations    Collection = "reservations"
	CollectionServiceRequests Collection = "service_requests"
	CollectionAdminActions    Collection = "admin_actions"
)

// AllCollections in load order.
var AllCollections = []Collection{
	CollectionCars,
	CollectionCustomers,
	CollectionShowrooms,
	CollectionGarages,
	CollectionServices,
	CollectionBuyRent,
	CollectionServiceProcess,
	CollectionReservations,
	CollectionServiceRequests,
	CollectionAdminActions,
}

// Snapshot is the full persisted state. Queue entries are head first,
// admin actions bottom of stack first.
type Snapshot struct {
	Cars            []Car
	Customers       []Customer
	Showrooms       []Showroom
	Garages         []Garage
	Services        []Service
	BuyRent         []BuyRentProcess
	ServiceHistory  []ServiceProcess
	Reservations    []Reservation
	ServiceRequests []ServiceRequest
	AdminActions    []AdminAction
}

type Statistics struct {
	Cars               int     `json:"cars"`
	AvailableCars      int     `json:"available_cars"`
	UnavailableCars    int     `json:"unavailable_cars"`
	Customers          int     `json:"customers"`
	Showrooms          int     `json:"showrooms"`
	Garages            int     `json:"garages"`
	Services           int     `json:"services"`
	Purchases          int     `json:"purchases"`
	Rentals            int     `json:"rentals"`
	ServiceJobs        int     `json:"service_jobs"`
	ActiveReservations int     `json:"active_reservations"`
	PendingRequests    int     `json:"pending_requests"`
	LoggedActions      int     `json:"logged_actions"`
	CarRevenue         float64 `json:"car_revenue"`
	ServiceRevenue     float64 `json:"service_revenue"`
	TotalRevenue       float64 `json:"total_revenue"`
}
