package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dealership/internal/models"
)

// Load читает все коллекции
func (db *DB) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	loaders := []struct {
		name models.Collection
		load func(context.Context, *models.Snapshot) error
	}{
		{models.CollectionCars, db.loadCars},
		{models.CollectionCustomers, db.loadCustomers},
		{models.CollectionShowrooms, db.loadShowrooms},
		{models.CollectionGarages, db.loadGarages},
		{models.CollectionServices, db.loadServices},
		{models.CollectionBuyRent, db.loadBuyRent},
		{models.CollectionServiceProcess, db.loadServiceHistory},
		{models.CollectionReservations, db.loadReservations},
		{models.CollectionServiceRequests, db.loadServiceRequests},
		{models.CollectionAdminActions, db.loadAdminActions},
	}
	for _, l := range loaders {
		if err := l.load(ctx, snap); err != nil {
			return nil, fmt.Errorf("load %s: %w", l.name, err)
		}
	}
	return snap, nil
}

// Save перезаписывает указанные таблицы в одной транзакции
func (db *DB) Save(ctx context.Context, snap *models.Snapshot, cols ...models.Collection) error {
	if len(cols) == 0 {
		cols = models.AllCollections
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cols {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+string(c)); err != nil {
			return fmt.Errorf("clear %s: %w", c, err)
		}
		if err := saveCollection(ctx, tx, snap, c); err != nil {
			return fmt.Errorf("save %s: %w", c, err)
		}
	}

	return tx.Commit()
}

func saveCollection(ctx context.Context, tx *sql.Tx, snap *models.Snapshot, c models.Collection) error {
	switch c {
	case models.CollectionCars:
		return insertAll(ctx, tx,
			`INSERT INTO cars (id, make, model, year, price, installment, showroom_id, available) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.Cars, func(v models.Car) []any {
				return []any{v.ID, v.Make, v.Model, v.Year, v.Price, v.Installment, v.ShowroomID, v.Available}
			})
	case models.CollectionCustomers:
		return insertAll(ctx, tx,
			`INSERT INTO customers (id, username, password, phone) VALUES (?, ?, ?, ?)`,
			snap.Customers, func(v models.Customer) []any {
				return []any{v.ID, v.Username, v.PasswordHash, v.Phone}
			})
	case models.CollectionShowrooms:
		return insertAll(ctx, tx,
			`INSERT INTO showrooms (id, name, location, phone, car_ids) VALUES (?, ?, ?, ?, ?)`,
			snap.Showrooms, func(v models.Showroom) []any {
				return []any{v.ID, v.Name, v.Location, v.Phone, joinIDs(v.CarIDs)}
			})
	case models.CollectionGarages:
		return insertAll(ctx, tx,
			`INSERT INTO garages (id, name, location, phone, service_ids) VALUES (?, ?, ?, ?, ?)`,
			snap.Garages, func(v models.Garage) []any {
				return []any{v.ID, v.Name, v.Location, v.Phone, joinIDs(v.ServiceIDs)}
			})
	case models.CollectionServices:
		return insertAll(ctx, tx,
			`INSERT INTO services (id, name, price) VALUES (?, ?, ?)`,
			snap.Services, func(v models.Service) []any {
				return []any{v.ID, v.Name, v.Price}
			})
	case models.CollectionBuyRent:
		return insertAll(ctx, tx,
			`INSERT INTO buy_rent_process (process_id, customer_id, date, amount, car_id, type) VALUES (?, ?, ?, ?, ?, ?)`,
			snap.BuyRent, func(v models.BuyRentProcess) []any {
				return []any{v.ProcessID, v.CustomerID, formatTime(v.Date), v.Amount, v.CarID, string(v.Type)}
			})
	case models.CollectionServiceProcess:
		return insertAll(ctx, tx,
			`INSERT INTO service_process (process_id, customer_id, date, amount, service_id, garage_id) VALUES (?, ?, ?, ?, ?, ?)`,
			snap.ServiceHistory, func(v models.ServiceProcess) []any {
				return []any{v.ProcessID, v.CustomerID, formatTime(v.Date), v.Amount, v.ServiceID, v.GarageID}
			})
	case models.CollectionReservations:
		return insertAll(ctx, tx,
			`INSERT INTO reservations (reservation_id, customer_id, car_id, start_time, expiry_time) VALUES (?, ?, ?, ?, ?)`,
			snap.Reservations, func(v models.Reservation) []any {
				return []any{v.ReservationID, v.CustomerID, v.CarID, formatTime(v.StartTime), formatTime(v.ExpiryTime)}
			})
	case models.CollectionServiceRequests:
		return insertAll(ctx, tx,
			`INSERT INTO service_requests (request_id, customer_id, service_id, garage_id, timestamp, status) VALUES (?, ?, ?, ?, ?, ?)`,
			snap.ServiceRequests, func(v models.ServiceRequest) []any {
				return []any{v.RequestID, v.CustomerID, v.ServiceID, v.GarageID, formatTime(v.Timestamp), v.Status}
			})
	case models.CollectionAdminActions:
		return insertAll(ctx, tx,
			`INSERT INTO admin_actions (action_id, admin_id, action_type, entity_type, entity_id, timestamp, details) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.AdminActions, func(v models.AdminAction) []any {
				return []any{v.ActionID, v.AdminID, v.ActionType, v.EntityType, v.EntityID, formatTime(v.Timestamp), v.Details}
			})
	}
	return fmt.Errorf("unknown collection %q", c)
}

// insertAll keeps slice order: tables with a position column get it from rowid order.
func insertAll[T any](ctx context.Context, tx *sql.Tx, query string, items []T, args func(T) []any) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, args(item)...); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadCars(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT id, make, model, year, price, installment, showroom_id, available FROM cars ORDER BY id`,
		func(rows *sql.Rows) error {
			var c models.Car
			if err := rows.Scan(&c.ID, &c.Make, &c.Model, &c.Year, &c.Price, &c.Installment, &c.ShowroomID, &c.Available); err != nil {
				return err
			}
			snap.Cars = append(snap.Cars, c)
			return nil
		})
}

func (db *DB) loadCustomers(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT id, username, password, COALESCE(phone, '') FROM customers ORDER BY id`,
		func(rows *sql.Rows) error {
			var c models.Customer
			if err := rows.Scan(&c.ID, &c.Username, &c.PasswordHash, &c.Phone); err != nil {
				return err
			}
			snap.Customers = append(snap.Customers, c)
			return nil
		})
}

func (db *DB) loadShowrooms(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT id, name, COALESCE(location, ''), COALESCE(phone, ''), car_ids FROM showrooms ORDER BY id`,
		func(rows *sql.Rows) error {
			var s models.Showroom
			var ids string
			if err := rows.Scan(&s.ID, &s.Name, &s.Location, &s.Phone, &ids); err != nil {
				return err
			}
			parsed, err := splitIDs(ids)
			if err != nil {
				return fmt.Errorf("showroom %d car_ids: %w", s.ID, err)
			}
			s.CarIDs = parsed
			snap.Showrooms = append(snap.Showrooms, s)
			return nil
		})
}

func (db *DB) loadGarages(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT id, name, COALESCE(location, ''), COALESCE(phone, ''), service_ids FROM garages ORDER BY id`,
		func(rows *sql.Rows) error {
			var g models.Garage
			var ids string
			if err := rows.Scan(&g.ID, &g.Name, &g.Location, &g.Phone, &ids); err != nil {
				return err
			}
			parsed, err := splitIDs(ids)
			if err != nil {
				return fmt.Errorf("garage %d service_ids: %w", g.ID, err)
			}
			g.ServiceIDs = parsed
			snap.Garages = append(snap.Garages, g)
			return nil
		})
}

func (db *DB) loadServices(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT id, name, price FROM services ORDER BY id`,
		func(rows *sql.Rows) error {
			var s models.Service
			if err := rows.Scan(&s.ID, &s.Name, &s.Price); err != nil {
				return err
			}
			snap.Services = append(snap.Services, s)
			return nil
		})
}

func (db *DB) loadBuyRent(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT process_id, customer_id, date, amount, car_id, type FROM buy_rent_process ORDER BY position`,
		func(rows *sql.Rows) error {
			var p models.BuyRentProcess
			var date, kind string
			if err := rows.Scan(&p.ProcessID, &p.CustomerID, &date, &p.Amount, &p.CarID, &kind); err != nil {
				return err
			}
			var err error
			if p.Date, err = parseTime(date); err != nil {
				return err
			}
			p.Type = models.TransactionType(kind)
			snap.BuyRent = append(snap.BuyRent, p)
			return nil
		})
}

func (db *DB) loadServiceHistory(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT process_id, customer_id, date, amount, service_id, garage_id FROM service_process ORDER BY position`,
		func(rows *sql.Rows) error {
			var p models.ServiceProcess
			var date string
			if err := rows.Scan(&p.ProcessID, &p.CustomerID, &date, &p.Amount, &p.ServiceID, &p.GarageID); err != nil {
				return err
			}
			var err error
			if p.Date, err = parseTime(date); err != nil {
				return err
			}
			snap.ServiceHistory = append(snap.ServiceHistory, p)
			return nil
		})
}

func (db *DB) loadReservations(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT reservation_id, customer_id, car_id, start_time, expiry_time FROM reservations ORDER BY reservation_id`,
		func(rows *sql.Rows) error {
			var r models.Reservation
			var start, expiry string
			if err := rows.Scan(&r.ReservationID, &r.CustomerID, &r.CarID, &start, &expiry); err != nil {
				return err
			}
			var err error
			if r.StartTime, err = parseTime(start); err != nil {
				return err
			}
			if r.ExpiryTime, err = parseTime(expiry); err != nil {
				return err
			}
			snap.Reservations = append(snap.Reservations, r)
			return nil
		})
}

func (db *DB) loadServiceRequests(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT request_id, customer_id, service_id, garage_id, timestamp, status FROM service_requests ORDER BY position`,
		func(rows *sql.Rows) error {
			var r models.ServiceRequest
			var ts string
			if err := rows.Scan(&r.RequestID, &r.CustomerID, &r.ServiceID, &r.GarageID, &ts, &r.Status); err != nil {
				return err
			}
			var err error
			if r.Timestamp, err = parseTime(ts); err != nil {
				return err
			}
			snap.ServiceRequests = append(snap.ServiceRequests, r)
			return nil
		})
}

func (db *DB) loadAdminActions(ctx context.Context, snap *models.Snapshot) error {
	return scanAll(ctx, db.db, `SELECT action_id, admin_id, action_type, entity_type, entity_id, timestamp, COALESCE(details, '') FROM admin_actions ORDER BY position`,
		func(rows *sql.Rows) error {
			var a models.AdminAction
			var ts string
			if err := rows.Scan(&a.ActionID, &a.AdminID, &a.ActionType, &a.EntityType, &a.EntityID, &ts, &a.Details); err != nil {
				return err
			}
			var err error
			if a.Timestamp, err = parseTime(ts); err != nil {
				return err
			}
			snap.AdminActions = append(snap.AdminActions, a)
			return nil
		})
}

func scanAll(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Время хранится как текст в UTC в общем формате записей
func formatTime(t time.Time) string {
	return t.UTC().Format(models.TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(time.Local), nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ";")
}

func splitIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ";")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
