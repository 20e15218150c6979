package service

import (
	"context"
	"fmt"
	"strings"

	"dealership/internal/domain"
	"dealership/internal/events"
	"dealership/internal/models"
	"dealership/internal/store"

	"github.com/rs/zerolog"
)

const (
	adviceDelete = "manual restoration required"
	adviceAdd    = "consider manually removing the added entity"
)

type CarInput struct {
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Year        int     `json:"year"`
	Price       float64 `json:"price"`
	Installment bool    `json:"installment"`
	ShowroomID  int64   `json:"showroom_id"`
}

func (in CarInput) validate() error {
	if strings.TrimSpace(in.Make) == "" || strings.TrimSpace(in.Model) == "" {
		return fmt.Errorf("make and model are required: %w", store.ErrInvalidInput)
	}
	if in.Year <= 0 {
		return fmt.Errorf("year %d: %w", in.Year, store.ErrInvalidInput)
	}
	if in.Price < 0 {
		return fmt.Errorf("price %v: %w", in.Price, store.ErrInvalidInput)
	}
	return nil
}

// CarUpdate changes only the fields that are set.
type CarUpdate struct {
	Make        *string  `json:"make,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Installment *bool    `json:"installment,omitempty"`
}

type LocationInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
}

type LocationUpdate struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type ServiceInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type ServiceUpdate struct {
	Name  *string  `json:"name,omitempty"`
	Price *float64 `json:"price,omitempty"`
}

// InventoryService is the admin side: catalogue CRUD, customers, the
// action log and explicit saves. Every add and delete is logged as an
// admin action in the same unit of work.
type InventoryService struct {
	store    *store.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewInventoryService(st *store.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *InventoryService {
	return &InventoryService{store: st, eventBus: eventBus, logger: logger}
}

// record runs fn and, when it produces an action, pushes it in the same
// unit of work.
func (s *InventoryService) record(ctx context.Context, adminID int64, actionType, entityType string, fn func(tx *store.Tx) (int64, string, error)) (models.AdminAction, error) {
	var action models.AdminAction
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		id, details, err := fn(tx)
		if err != nil {
			return err
		}
		action = tx.PushAction(adminID, actionType, entityType, id, details)
		return nil
	})
	observe(s.store, err)
	if err != nil {
		return models.AdminAction{}, err
	}

	logAction(s.logger, action)
	publish(s.eventBus, s.logger, events.EventAdminAction, events.AdminActionPayload{
		ActionID:   action.ActionID,
		AdminID:    action.AdminID,
		ActionType: action.ActionType,
		EntityType: action.EntityType,
		EntityID:   action.EntityID,
		Details:    action.Details,
	})
	return action, nil
}

func (s *InventoryService) update(ctx context.Context, fn func(tx *store.Tx) error) error {
	err := s.store.Update(ctx, fn)
	observe(s.store, err)
	return err
}

// Cars

func (s *InventoryService) Cars() []models.Car {
	var cars []models.Car
	_ = s.store.View(func(r *store.Reader) error {
		cars = r.Cars()
		return nil
	})
	return cars
}

// AddCar creates an available car and lists it in its showroom.
func (s *InventoryService) AddCar(ctx context.Context, adminID int64, in CarInput) (models.Car, error) {
	if err := in.validate(); err != nil {
		return models.Car{}, err
	}

	var car models.Car
	_, err := s.record(ctx, adminID, models.ActionAdd, models.EntityCar, func(tx *store.Tx) (int64, string, error) {
		showroom, err := tx.Showroom(in.ShowroomID)
		if err != nil {
			return 0, "", err
		}

		car = models.Car{
			ID:          tx.NextID(models.CollectionCars),
			Make:        strings.TrimSpace(in.Make),
			Model:       strings.TrimSpace(in.Model),
			Year:        in.Year,
			Price:       in.Price,
			Installment: in.Installment,
			ShowroomID:  in.ShowroomID,
			Available:   true,
		}
		if err := tx.InsertCar(car); err != nil {
			return 0, "", err
		}
		showroom.AddCar(car.ID)
		if err := tx.UpdateShowroom(showroom); err != nil {
			return 0, "", err
		}
		return car.ID, car.Label(), nil
	})
	return car, err
}

func (s *InventoryService) UpdateCar(ctx context.Context, id int64, upd CarUpdate) (models.Car, error) {
	var car models.Car
	err := s.update(ctx, func(tx *store.Tx) error {
		var err error
		if car, err = tx.Car(id); err != nil {
			return err
		}
		if upd.Make != nil && strings.TrimSpace(*upd.Make) != "" {
			car.Make = strings.TrimSpace(*upd.Make)
		}
		if upd.Model != nil && strings.TrimSpace(*upd.Model) != "" {
			car.Model = strings.TrimSpace(*upd.Model)
		}
		if upd.Year != nil {
			if *upd.Year <= 0 {
				return fmt.Errorf("year %d: %w", *upd.Year, store.ErrInvalidInput)
			}
			car.Year = *upd.Year
		}
		if upd.Price != nil {
			if *upd.Price < 0 {
				return fmt.Errorf("price %v: %w", *upd.Price, store.ErrInvalidInput)
			}
			car.Price = *upd.Price
		}
		if upd.Installment != nil {
			car.Installment = *upd.Installment
		}
		return tx.UpdateCar(car)
	})
	return car, err
}

// DeleteCar removes the car, its showroom listing and any reservation holding it.
func (s *InventoryService) DeleteCar(ctx context.Context, adminID, id int64) (models.Car, error) {
	var car models.Car
	_, err := s.record(ctx, adminID, models.ActionDelete, models.EntityCar, func(tx *store.Tx) (int64, string, error) {
		var err error
		if car, err = tx.DeleteCar(id); err != nil {
			return 0, "", err
		}
		return id, car.Label(), nil
	})
	return car, err
}

// Showrooms

func (s *InventoryService) Showrooms() []models.Showroom {
	var out []models.Showroom
	_ = s.store.View(func(r *store.Reader) error {
		out = r.Showrooms()
		return nil
	})
	return out
}

func (s *InventoryService) AddShowroom(ctx context.Context, adminID int64, in LocationInput) (models.Showroom, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Showroom{}, fmt.Errorf("showroom name is required: %w", store.ErrInvalidInput)
	}

	var showroom models.Showroom
	_, err := s.record(ctx, adminID, models.ActionAdd, models.EntityShowroom, func(tx *store.Tx) (int64, string, error) {
		showroom = models.Showroom{
			ID:       tx.NextID(models.CollectionShowrooms),
			Name:     strings.TrimSpace(in.Name),
			Location: strings.TrimSpace(in.Location),
			Phone:    strings.TrimSpace(in.Phone),
		}
		if err := tx.InsertShowroom(showroom); err != nil {
			return 0, "", err
		}
		return showroom.ID, showroom.Name, nil
	})
	return showroom, err
}

func (s *InventoryService) UpdateShowroom(ctx context.Context, id int64, upd LocationUpdate) (models.Showroom, error) {
	var showroom models.Showroom
	err := s.update(ctx, func(tx *store.Tx) error {
		var err error
		if showroom, err = tx.Showroom(id); err != nil {
			return err
		}
		applyLocation(&showroom.Name, &showroom.Location, &showroom.Phone, upd)
		return tx.UpdateShowroom(showroom)
	})
	return showroom, err
}

// DeleteShowroom removes the showroom; its cars stay. Warnings is the
// number of cars that were still listed.
func (s *InventoryService) DeleteShowroom(ctx context.Context, adminID, id int64) (DeleteResult, error) {
	var result DeleteResult
	_, err := s.record(ctx, adminID, models.ActionDelete, models.EntityShowroom, func(tx *store.Tx) (int64, string, error) {
		showroom, err := tx.DeleteShowroom(id)
		if err != nil {
			return 0, "", err
		}
		result = DeleteResult{ID: id, Name: showroom.Name, Warnings: len(showroom.CarIDs)}
		return id, showroom.Name, nil
	})
	if err == nil && result.Warnings > 0 {
		s.logger.Warn().Int64("showroom_id", id).Int("cars", result.Warnings).Msg("Deleted showroom still listed cars")
	}
	return result, err
}

// Garages

func (s *InventoryService) Garages() []models.Garage {
	var out []models.Garage
	_ = s.store.View(func(r *store.Reader) error {
		out = r.Garages()
		return nil
	})
	return out
}

func (s *InventoryService) AddGarage(ctx context.Context, adminID int64, in LocationInput) (models.Garage, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Garage{}, fmt.Errorf("garage name is required: %w", store.ErrInvalidInput)
	}

	var garage models.Garage
	_, err := s.record(ctx, adminID, models.ActionAdd, models.EntityGarage, func(tx *store.Tx) (int64, string, error) {
		garage = models.Garage{
			ID:       tx.NextID(models.CollectionGarages),
			Name:     strings.TrimSpace(in.Name),
			Location: strings.TrimSpace(in.Location),
			Phone:    strings.TrimSpace(in.Phone),
		}
		if err := tx.InsertGarage(garage); err != nil {
			return 0, "", err
		}
		return garage.ID, garage.Name, nil
	})
	return garage, err
}

func (s *InventoryService) UpdateGarage(ctx context.Context, id int64, upd LocationUpdate) (models.Garage, error) {
	var garage models.Garage
	err := s.update(ctx, func(tx *store.Tx) error {
		var err error
		if garage, err = tx.Garage(id); err != nil {
			return err
		}
		applyLocation(&garage.Name, &garage.Location, &garage.Phone, upd)
		return tx.UpdateGarage(garage)
	})
	return garage, err
}

// DeleteGarage removes the garage. Warnings counts the services it offered.
func (s *InventoryService) DeleteGarage(ctx context.Context, adminID, id int64) (DeleteResult, error) {
	var result DeleteResult
	_, err := s.record(ctx, adminID, models.ActionDelete, models.EntityGarage, func(tx *store.Tx) (int64, string, error) {
		garage, err := tx.DeleteGarage(id)
		if err != nil {
			return 0, "", err
		}
		result = DeleteResult{ID: id, Name: garage.Name, Warnings: len(garage.ServiceIDs)}
		return id, garage.Name, nil
	})
	return result, err
}

// AttachService makes the garage offer the service.
func (s *InventoryService) AttachService(ctx context.Context, garageID, serviceID int64) (models.Garage, error) {
	var garage models.Garage
	err := s.update(ctx, func(tx *store.Tx) error {
		var err error
		if garage, err = tx.Garage(garageID); err != nil {
			return err
		}
		if _, err := tx.Service(serviceID); err != nil {
			return err
		}
		if garage.Offers(serviceID) {
			return nil
		}
		garage.AddService(serviceID)
		return tx.UpdateGarage(garage)
	})
	return garage, err
}

func (s *InventoryService) DetachService(ctx context.Context, garageID, serviceID int64) (models.Garage, error) {
	var garage models.Garage
	err := s.update(ctx, func(tx *store.Tx) error {
		var err error
		if garage, err = tx.Garage(garageID); err != nil {
			return err
		}
		if !garage.RemoveService(serviceID) {
			return fmt.Errorf("service %d at garage %d: %w", serviceID, garageID, store.ErrServiceNotOffered)
		}
		return tx.UpdateGarage(garage)
	})
	return garage, err
}

// Services

func (s *InventoryService) Services() []models.Service {
	var out []models.Service
	_ = s.store.View(func(r *store.Reader) error {
		out = r.Services()
		return nil
	})
	return out
}

func (s *InventoryService) AddService(ctx context.Context, adminID int64, in ServiceInput) (models.Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Service{}, fmt.Errorf("service name is required: %w", store.ErrInvalidInput)
	}
	if in.Price < 0 {
		return models.Service{}, fmt.Errorf("price %v: %w", in.Price, store.ErrInvalidInput)
	}

	var svc models.Service
	_, err := s.record(ctx, adminID, models.ActionAdd, models.EntityService, func(tx *store.Tx) (int64, string, error) {
		svc = models.Service{ID: tx.NextID(models.CollectionServices), Name: strings.TrimSpace(in.Name), Price: in.Price}
		if err := tx.InsertService(svc); err != nil {
			return 0, "", err
		}
		return svc.ID, svc.Name, nil
	})
	return svc, err
}

func (s *InventoryService) UpdateService(ctx context.Context, id int64, upd ServiceUpdate) (models.Service, error) {
	var svc models.Service
	err := s.update(ctx, func(tx *store.Tx) error {
		var err error
		if svc, err = tx.Service(id); err != nil {
			return err
		}
		if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
			svc.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Price != nil {
			if *upd.Price < 0 {
				return fmt.Errorf("price %v: %w", *upd.Price, store.ErrInvalidInput)
			}
			svc.Price = *upd.Price
		}
		return tx.UpdateService(svc)
	})
	return svc, err
}

// DeleteService keeps garage links and queued requests pointing at it.
func (s *InventoryService) DeleteService(ctx context.Context, adminID, id int64) (models.Service, error) {
	var svc models.Service
	_, err := s.record(ctx, adminID, models.ActionDelete, models.EntityService, func(tx *store.Tx) (int64, string, error) {
		var err error
		if svc, err = tx.DeleteService(id); err != nil {
			return 0, "", err
		}
		return id, svc.Name, nil
	})
	return svc, err
}

// Customers

func (s *InventoryService) Customers() []models.Customer {
	var out []models.Customer
	_ = s.store.View(func(r *store.Reader) error {
		out = r.Customers()
		return nil
	})
	return out
}

// DeleteCustomer removes the account. History and reservations stay, and the
// id is never given to a new account.
func (s *InventoryService) DeleteCustomer(ctx context.Context, adminID, id int64) (models.Customer, error) {
	var customer models.Customer
	_, err := s.record(ctx, adminID, models.ActionDelete, models.EntityCustomer, func(tx *store.Tx) (int64, string, error) {
		var err error
		if customer, err = tx.DeleteCustomer(id); err != nil {
			return 0, "", err
		}
		return id, customer.Username, nil
	})
	return customer, err
}

// Action log

// Actions lists the log from the most recent entry down.
func (s *InventoryService) Actions() []models.AdminAction {
	var items []models.AdminAction
	_ = s.store.View(func(r *store.Reader) error {
		items = r.AdminActions()
		return nil
	})
	out := make([]models.AdminAction, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	return out
}

// LastAction is the entry UndoLastAction would pop.
func (s *InventoryService) LastAction() (models.AdminAction, bool) {
	return s.store.PeekAdminAction()
}

// ClearActions empties the action log. Nothing it describes is reversed.
func (s *InventoryService) ClearActions(ctx context.Context, adminID int64) (int, error) {
	n := s.store.StackSize()
	err := s.store.ClearAdminActions(ctx)
	observe(s.store, err)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("admin_id", adminID).Int("cleared", n).Msg("Admin action log cleared")
	return n, nil
}

// UndoLastAction pops the most recent action and says how to reverse it by
// hand. ok is false when the log is empty.
func (s *InventoryService) UndoLastAction(ctx context.Context) (*UndoReport, bool, error) {
	action, ok, err := s.store.PopAdminAction(ctx)
	observe(s.store, err)
	if err != nil || !ok {
		return nil, false, err
	}

	report := &UndoReport{Action: action}
	switch action.ActionType {
	case models.ActionDelete:
		report.Advice = adviceDelete
	case models.ActionAdd:
		report.Advice = adviceAdd
	}

	s.logger.Info().
		Int64("action_id", action.ActionID).
		Str("action", action.ActionType).
		Str("entity", action.EntityType).
		Int64("entity_id", action.EntityID).
		Msg("Admin action popped")
	return report, true, nil
}

// Flush writes every collection to the persistence port.
func (s *InventoryService) Flush(ctx context.Context) error {
	err := s.store.Flush(ctx)
	observe(s.store, err)
	if err != nil {
		return err
	}
	s.logger.Info().Msg("All data saved")
	return nil
}

func applyLocation(name, location, phone *string, upd LocationUpdate) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		*name = strings.TrimSpace(*upd.Name)
	}
	if upd.Location != nil {
		*location = strings.TrimSpace(*upd.Location)
	}
	if upd.Phone != nil {
		*phone = strings.TrimSpace(*upd.Phone)
	}
}
