package service

import (
	"context"
	"fmt"
	"time"

	"dealership/internal/domain"
	"dealership/internal/events"
	"dealership/internal/metrics"
	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/rs/zerolog"
)

type TransactionConfig struct {
	DefaultHours  int
	RentalRate    float64
	SweepOnAccess bool
}

// TransactionService covers reservations, purchases, rentals and the
// service request queue.
type TransactionService struct {
	store    *store.Store
	eventBus domain.EventPublisher
	notifier domain.Notifier
	cfg      TransactionConfig
	logger   *zerolog.Logger
}

func NewTransactionService(st *store.Store, eventBus domain.EventPublisher, notifier domain.Notifier, cfg TransactionConfig, logger *zerolog.Logger) *TransactionService {
	if cfg.DefaultHours <= 0 {
		cfg.DefaultHours = models.DefaultReservationHours
	}
	if cfg.RentalRate <= 0 {
		cfg.RentalRate = models.DefaultRentalRate
	}
	return &TransactionService{
		store:    st,
		eventBus: eventBus,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// availableCar loads the car and fails when it cannot be sold, rented or reserved.
func availableCar(tx *store.Tx, carID int64) (models.Car, error) {
	car, err := tx.Car(carID)
	if err != nil {
		return models.Car{}, err
	}
	if !car.Available {
		return models.Car{}, fmt.Errorf("car %d: %w", carID, store.ErrCarUnavailable)
	}
	return car, nil
}

// Reserve holds the car for hours; hours <= 0 means the configured default.
func (s *TransactionService) Reserve(ctx context.Context, customerID, carID int64, hours int) (*ReservationReceipt, error) {
	if hours <= 0 {
		hours = s.cfg.DefaultHours
	}
	s.sweepOnAccess(ctx)

	var receipt ReservationReceipt
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		car, err := availableCar(tx, carID)
		if err != nil {
			return err
		}

		now := tx.Now()
		r := models.Reservation{
			ReservationID: tx.NextID(models.CollectionReservations),
			CustomerID:    customerID,
			CarID:         carID,
			StartTime:     now,
			ExpiryTime:    now.Add(time.Duration(hours) * time.Hour),
		}
		if err := tx.InsertReservation(r); err != nil {
			return err
		}
		if err := tx.SetCarAvailable(carID, false); err != nil {
			return err
		}

		car.Available = false
		receipt = ReservationReceipt{Reservation: r, Car: car, Hours: hours}
		return nil
	})
	observe(s.store, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("reservation_id", receipt.Reservation.ReservationID).
		Int64("customer_id", customerID).
		Int64("car_id", carID).
		Time("expires_at", receipt.Reservation.ExpiryTime).
		Msg("Car reserved")
	publish(s.eventBus, s.logger, events.EventCarReserved, events.CarEventPayload{
		CarID:         carID,
		CarLabel:      receipt.Car.Label(),
		CustomerID:    customerID,
		ReservationID: receipt.Reservation.ReservationID,
		ExpiresAt:     receipt.Reservation.ExpiryTime,
		At:            receipt.Reservation.StartTime,
	})
	return &receipt, nil
}

// CancelReservation deletes the customer's own reservation and frees the car.
func (s *TransactionService) CancelReservation(ctx context.Context, customerID, reservationID int64) (models.Reservation, error) {
	var r models.Reservation
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		if r, err = tx.Reservation(reservationID); err != nil {
			return err
		}
		if r.CustomerID != customerID {
			return fmt.Errorf("reservation %d: %w", reservationID, store.ErrNotOwner)
		}
		_, err = tx.DeleteReservation(reservationID)
		return err
	})
	observe(s.store, err)
	if err != nil {
		return models.Reservation{}, err
	}

	s.logger.Info().Int64("reservation_id", reservationID).Int64("customer_id", customerID).Msg("Reservation canceled")
	publish(s.eventBus, s.logger, events.EventReservationCanceled, events.CarEventPayload{
		CarID:         r.CarID,
		CustomerID:    customerID,
		ReservationID: reservationID,
		At:            s.store.Now(),
	})
	return r, nil
}

func (s *TransactionService) Buy(ctx context.Context, customerID, carID int64) (*Receipt, error) {
	return s.acquire(ctx, customerID, carID, models.TransactionBuy)
}

// Rent charges the rental rate of the price. The car is not returned automatically.
func (s *TransactionService) Rent(ctx context.Context, customerID, carID int64) (*Receipt, error) {
	return s.acquire(ctx, customerID, carID, models.TransactionRent)
}

func (s *TransactionService) acquire(ctx context.Context, customerID, carID int64, kind models.TransactionType) (*Receipt, error) {
	s.sweepOnAccess(ctx)

	var receipt Receipt
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		car, err := availableCar(tx, carID)
		if err != nil {
			return err
		}

		amount := car.Price
		if kind == models.TransactionRent {
			amount = car.Price * s.cfg.RentalRate
		}

		p := models.BuyRentProcess{
			ProcessID:  tx.NextID(models.CollectionBuyRent),
			CustomerID: customerID,
			Date:       tx.Now(),
			Amount:     amount,
			CarID:      carID,
			Type:       kind,
		}
		tx.AppendBuyRent(p)
		if err := tx.SetCarAvailable(carID, false); err != nil {
			return err
		}

		car.Available = false
		receipt = Receipt{Process: p, Car: car}
		return nil
	})
	observe(s.store, err)
	if err != nil {
		return nil, err
	}

	metrics.IncTransaction(string(kind))
	s.logger.Info().
		Int64("process_id", receipt.Process.ProcessID).
		Int64("customer_id", customerID).
		Int64("car_id", carID).
		Str("type", string(kind)).
		Float64("amount", receipt.Process.Amount).
		Msg("Car transaction completed")

	eventType := events.EventCarSold
	if kind == models.TransactionRent {
		eventType = events.EventCarRented
	}
	publish(s.eventBus, s.logger, eventType, events.CarEventPayload{
		CarID:      carID,
		CarLabel:   receipt.Car.Label(),
		CustomerID: customerID,
		Amount:     receipt.Process.Amount,
		At:         receipt.Process.Date,
	})
	return &receipt, nil
}

// BookService queues a request after checking the garage offers the service.
func (s *TransactionService) BookService(ctx context.Context, customerID, serviceID, garageID int64) (*BookingResult, error) {
	var result BookingResult
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		svc, err := tx.Service(serviceID)
		if err != nil {
			return err
		}
		garage, err := tx.Garage(garageID)
		if err != nil {
			return err
		}
		if !garage.Offers(serviceID) {
			return fmt.Errorf("service %d at garage %d: %w", serviceID, garageID, store.ErrServiceNotOffered)
		}

		req := tx.Enqueue(customerID, serviceID, garageID)
		result = BookingResult{Request: req, Service: svc, Garage: garage, Position: tx.QueueLen()}
		return nil
	})
	observe(s.store, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("request_id", result.Request.RequestID).
		Int64("customer_id", customerID).
		Int("position", result.Position).
		Msg("Service request queued")
	publish(s.eventBus, s.logger, events.EventServiceBooked, events.ServiceEventPayload{
		RequestID:     result.Request.RequestID,
		CustomerID:    customerID,
		ServiceID:     serviceID,
		GarageID:      garageID,
		QueuePosition: result.Position,
		At:            result.Request.Timestamp,
	})
	if s.notifier != nil {
		s.notifier.NotifyServiceBooked(ctx, result.Request, result.Service.Name, result.Garage.Name)
	}
	return &result, nil
}

// ProcessNextServiceRequest serves the queue head. ok is false when the
// queue was empty.
func (s *TransactionService) ProcessNextServiceRequest(ctx context.Context) (*ProcessedRequest, bool, error) {
	var (
		result ProcessedRequest
		ok     bool
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var req models.ServiceRequest
		if req, ok = tx.Dequeue(); !ok {
			return nil
		}

		// Цена берётся на момент обработки, удалённая услуга стоит 0
		var amount float64
		if svc, err := tx.Service(req.ServiceID); err == nil {
			amount = svc.Price
			result.Service = &svc
		}

		p := models.ServiceProcess{
			ProcessID:  tx.NextID(models.CollectionServiceProcess),
			CustomerID: req.CustomerID,
			Date:       tx.Now(),
			Amount:     amount,
			ServiceID:  req.ServiceID,
			GarageID:   req.GarageID,
		}
		tx.AppendServiceProcess(p)

		req.Status = models.RequestProcessed
		result.Request = req
		result.Process = p
		return nil
	})
	observe(s.store, err)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	metrics.IncTransaction("service")
	s.logger.Info().
		Int64("request_id", result.Request.RequestID).
		Int64("process_id", result.Process.ProcessID).
		Float64("amount", result.Process.Amount).
		Msg("Service request processed")
	publish(s.eventBus, s.logger, events.EventServiceProcessed, events.ServiceEventPayload{
		RequestID:  result.Request.RequestID,
		CustomerID: result.Request.CustomerID,
		ServiceID:  result.Request.ServiceID,
		GarageID:   result.Request.GarageID,
		Amount:     result.Process.Amount,
		At:         result.Process.Date,
	})
	return &result, true, nil
}

// SweepExpired reclaims every reservation expiring at or before now.
func (s *TransactionService) SweepExpired(ctx context.Context) ([]models.Reservation, error) {
	now := s.store.Now()
	expired, err := s.store.SweepExpired(ctx, now)
	observe(s.store, err)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	metrics.AddReservationsReclaimed(len(expired))

	payload := events.ReservationsExpiredPayload{At: now}
	for _, r := range expired {
		payload.ReservationIDs = append(payload.ReservationIDs, r.ReservationID)
		payload.CarIDs = append(payload.CarIDs, r.CarID)
	}
	publish(s.eventBus, s.logger, events.EventReservationsExpired, payload)
	if s.notifier != nil {
		s.notifier.NotifyReservationsExpired(ctx, expired)
	}
	return expired, nil
}

// SweepCount adapts SweepExpired to the background sweeper.
func (s *TransactionService) SweepCount(ctx context.Context) (int, error) {
	expired, err := s.SweepExpired(ctx)
	return len(expired), err
}

func (s *TransactionService) sweepOnAccess(ctx context.Context) {
	if !s.cfg.SweepOnAccess {
		return
	}
	if _, err := s.SweepExpired(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Sweep before reservation access failed")
	}
}

// Reservations lists every reservation with resolved names.
func (s *TransactionService) Reservations() []ReservationView {
	var out []ReservationView
	_ = s.store.View(func(r *store.Reader) error {
		for _, res := range r.Reservations() {
			out = append(out, reservationView(r, res))
		}
		return nil
	})
	return out
}

func (s *TransactionService) ReservationsFor(customerID int64) []ReservationView {
	s.sweepOnAccess(context.Background())

	var out []ReservationView
	_ = s.store.View(func(r *store.Reader) error {
		for _, res := range r.ReservationsFor(customerID) {
			out = append(out, reservationView(r, res))
		}
		return nil
	})
	return out
}

func reservationView(r *store.Reader, res models.Reservation) ReservationView {
	v := ReservationView{
		Reservation:  res,
		CustomerName: fmt.Sprintf("Customer #%d", res.CustomerID),
		CarLabel:     fmt.Sprintf("Car #%d", res.CarID),
	}
	if c, err := r.Customer(res.CustomerID); err == nil {
		v.CustomerName = c.Username
	}
	if car, err := r.Car(res.CarID); err == nil {
		v.CarLabel = car.Label()
	}
	return v
}

// Queue lists pending requests in service order.
func (s *TransactionService) Queue() []QueuedRequest {
	return s.queued(func(r *store.Reader) []models.ServiceRequest { return r.QueuedRequests() })
}

// MyServiceRequests lists the customer's pending requests with positions.
func (s *TransactionService) MyServiceRequests(customerID int64) []QueuedRequest {
	return s.queued(func(r *store.Reader) []models.ServiceRequest { return r.QueuedFor(customerID) })
}

// NextServiceRequest is the request ProcessNextServiceRequest would serve.
func (s *TransactionService) NextServiceRequest() (QueuedRequest, bool) {
	req, ok := s.store.PeekServiceRequest()
	if !ok {
		return QueuedRequest{}, false
	}
	head := s.queued(func(*store.Reader) []models.ServiceRequest { return []models.ServiceRequest{req} })
	return head[0], true
}

func (s *TransactionService) queued(pick func(r *store.Reader) []models.ServiceRequest) []QueuedRequest {
	var out []QueuedRequest
	_ = s.store.View(func(r *store.Reader) error {
		for _, req := range pick(r) {
			q := QueuedRequest{ServiceRequest: req, Position: r.QueuePosition(req.RequestID)}
			if svc, err := r.Service(req.ServiceID); err == nil {
				q.ServiceName = svc.Name
			}
			if g, err := r.Garage(req.GarageID); err == nil {
				q.GarageName = g.Name
			}
			out = append(out, q)
		}
		return nil
	})
	return out
}
