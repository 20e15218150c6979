package models

import "time"

// TimeLayout is the timestamp format used in every persisted record.
const TimeLayout = "2006-01-02 15:04:05"

const (
	// DefaultReservationHours срок резерва, если клиент не указал свой
	DefaultReservationHours = 24

	// DefaultRentalRate доля цены, которую платит клиент при аренде
	DefaultRentalRate = 0.10

	// DefaultSessionTTL время жизни сессии
	DefaultSessionTTL = 12 * time.Hour

	// LoginAttemptsLimit число попыток входа в окне
	LoginAttemptsLimit = 5

	// LoginAttemptsWindow окно ограничения попыток входа
	LoginAttemptsWindow = 5 * time.Minute
)
