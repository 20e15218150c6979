package csvstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dealership/internal/models"
)

// listSep joins id lists inside one column.
const listSep = ";"

type codec struct {
	header []string
	encode func(snap *models.Snapshot, loc *time.Location) [][]string
	decode func(snap *models.Snapshot, row []string, loc *time.Location) error
}

var codecs = map[models.Collection]codec{
	models.CollectionCars: {
		header: []string{"id", "make", "model", "year", "price", "installment", "showroom_id", "available"},
		encode: func(snap *models.Snapshot, _ *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.Cars))
			for _, c := range snap.Cars {
				rows = append(rows, []string{
					formatInt(c.ID), c.Make, c.Model, strconv.Itoa(c.Year), formatFloat(c.Price),
					formatBool(c.Installment), formatInt(c.ShowroomID), formatBool(c.Available),
				})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, _ *time.Location) error {
			p := parser{row: row}
			c := models.Car{
				ID:          p.intAt(0),
				Make:        row[1],
				Model:       row[2],
				Year:        int(p.intAt(3)),
				Price:       p.floatAt(4),
				Installment: p.boolAt(5),
				ShowroomID:  p.intAt(6),
				Available:   p.boolAt(7),
			}
			if p.err == nil {
				snap.Cars = append(snap.Cars, c)
			}
			return p.err
		},
	},
	models.CollectionCustomers: {
		header: []string{"id", "username", "password", "phone"},
		encode: func(snap *models.Snapshot, _ *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.Customers))
			for _, c := range snap.Customers {
				rows = append(rows, []string{formatInt(c.ID), c.Username, c.PasswordHash, c.Phone})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, _ *time.Location) error {
			p := parser{row: row}
			c := models.Customer{ID: p.intAt(0), Username: row[1], PasswordHash: row[2], Phone: row[3]}
			if p.err == nil {
				snap.Customers = append(snap.Customers, c)
			}
			return p.err
		},
	},
	models.CollectionShowrooms: {
		header: []string{"id", "name", "location", "phone", "car_ids"},
		encode: func(snap *models.Snapshot, _ *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.Showrooms))
			for _, s := range snap.Showrooms {
				rows = append(rows, []string{formatInt(s.ID), s.Name, s.Location, s.Phone, formatIDs(s.CarIDs)})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, _ *time.Location) error {
			p := parser{row: row}
			s := models.Showroom{ID: p.intAt(0), Name: row[1], Location: row[2], Phone: row[3], CarIDs: p.idsAt(4)}
			if p.err == nil {
				snap.Showrooms = append(snap.Showrooms, s)
			}
			return p.err
		},
	},
	models.CollectionGarages: {
		header: []string{"id", "name", "location", "phone", "service_ids"},
		encode: func(snap *models.Snapshot, _ *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.Garages))
			for _, g := range snap.Garages {
				rows = append(rows, []string{formatInt(g.ID), g.Name, g.Location, g.Phone, formatIDs(g.ServiceIDs)})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, _ *time.Location) error {
			p := parser{row: row}
			g := models.Garage{ID: p.intAt(0), Name: row[1], Location: row[2], Phone: row[3], ServiceIDs: p.idsAt(4)}
			if p.err == nil {
				snap.Garages = append(snap.Garages, g)
			}
			return p.err
		},
	},
	models.CollectionServices: {
		header: []string{"id", "name", "price"},
		encode: func(snap *models.Snapshot, _ *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.Services))
			for _, s := range snap.Services {
				rows = append(rows, []string{formatInt(s.ID), s.Name, formatFloat(s.Price)})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, _ *time.Location) error {
			p := parser{row: row}
			s := models.Service{ID: p.intAt(0), Name: row[1], Price: p.floatAt(2)}
			if p.err == nil {
				snap.Services = append(snap.Services, s)
			}
			return p.err
		},
	},
	models.CollectionBuyRent: {
		header: []string{"process_id", "customer_id", "date", "amount", "car_id", "type"},
		encode: func(snap *models.Snapshot, loc *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.BuyRent))
			for _, b := range snap.BuyRent {
				rows = append(rows, []string{
					formatInt(b.ProcessID), formatInt(b.CustomerID), formatTime(b.Date, loc),
					formatFloat(b.Amount), formatInt(b.CarID), string(b.Type),
				})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, loc *time.Location) error {
			p := parser{row: row, loc: loc}
			b := models.BuyRentProcess{
				ProcessID:  p.intAt(0),
				CustomerID: p.intAt(1),
				Date:       p.timeAt(2),
				Amount:     p.floatAt(3),
				CarID:      p.intAt(4),
				Type:       models.TransactionType(strings.TrimSpace(row[5])),
			}
			if p.err == nil && !b.Type.Valid() {
				p.err = fmt.Errorf("unknown transaction type %q", row[5])
			}
			if p.err == nil {
				snap.BuyRent = append(snap.BuyRent, b)
			}
			return p.err
		},
	},
	models.CollectionServiceProcess: {
		header: []string{"process_id", "customer_id", "date", "amount", "service_id", "garage_id"},
		encode: func(snap *models.Snapshot, loc *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.ServiceHistory))
			for _, s := range snap.ServiceHistory {
				rows = append(rows, []string{
					formatInt(s.ProcessID), formatInt(s.CustomerID), formatTime(s.Date, loc),
					formatFloat(s.Amount), formatInt(s.ServiceID), formatInt(s.GarageID),
				})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, loc *time.Location) error {
			p := parser{row: row, loc: loc}
			s := models.ServiceProcess{
				ProcessID:  p.intAt(0),
				CustomerID: p.intAt(1),
				Date:       p.timeAt(2),
				Amount:     p.floatAt(3),
				ServiceID:  p.intAt(4),
				GarageID:   p.intAt(5),
			}
			if p.err == nil {
				snap.ServiceHistory = append(snap.ServiceHistory, s)
			}
			return p.err
		},
	},
	models.CollectionReservations: {
		header: []string{"reservation_id", "customer_id", "car_id", "start_time", "expiry_time"},
		encode: func(snap *models.Snapshot, loc *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.Reservations))
			for _, r := range snap.Reservations {
				rows = append(rows, []string{
					formatInt(r.ReservationID), formatInt(r.CustomerID), formatInt(r.CarID),
					formatTime(r.StartTime, loc), formatTime(r.ExpiryTime, loc),
				})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, loc *time.Location) error {
			p := parser{row: row, loc: loc}
			r := models.Reservation{
				ReservationID: p.intAt(0),
				CustomerID:    p.intAt(1),
				CarID:         p.intAt(2),
				StartTime:     p.timeAt(3),
				ExpiryTime:    p.timeAt(4),
			}
			if p.err == nil {
				snap.Reservations = append(snap.Reservations, r)
			}
			return p.err
		},
	},
	models.CollectionServiceRequests: {
		header: []string{"request_id", "customer_id", "service_id", "garage_id", "timestamp", "status"},
		encode: func(snap *models.Snapshot, loc *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.ServiceRequests))
			for _, r := range snap.ServiceRequests {
				rows = append(rows, []string{
					formatInt(r.RequestID), formatInt(r.CustomerID), formatInt(r.ServiceID),
					formatInt(r.GarageID), formatTime(r.Timestamp, loc), r.Status,
				})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, loc *time.Location) error {
			p := parser{row: row, loc: loc}
			r := models.ServiceRequest{
				RequestID:  p.intAt(0),
				CustomerID: p.intAt(1),
				ServiceID:  p.intAt(2),
				GarageID:   p.intAt(3),
				Timestamp:  p.timeAt(4),
				Status:     strings.TrimSpace(row[5]),
			}
			if p.err == nil {
				snap.ServiceRequests = append(snap.ServiceRequests, r)
			}
			return p.err
		},
	},
	models.CollectionAdminActions: {
		header: []string{"action_id", "admin_id", "action_type", "entity_type", "entity_id", "timestamp", "details"},
		encode: func(snap *models.Snapshot, loc *time.Location) [][]string {
			rows := make([][]string, 0, len(snap.AdminActions))
			for _, a := range snap.AdminActions {
				rows = append(rows, []string{
					formatInt(a.ActionID), formatInt(a.AdminID), a.ActionType, a.EntityType,
					formatInt(a.EntityID), formatTime(a.Timestamp, loc), a.Details,
				})
			}
			return rows
		},
		decode: func(snap *models.Snapshot, row []string, loc *time.Location) error {
			p := parser{row: row, loc: loc}
			a := models.AdminAction{
				ActionID:   p.intAt(0),
				AdminID:    p.intAt(1),
				ActionType: strings.TrimSpace(row[2]),
				EntityType: strings.TrimSpace(row[3]),
				EntityID:   p.intAt(4),
				Timestamp:  p.timeAt(5),
				Details:    row[6],
			}
			if p.err == nil {
				snap.AdminActions = append(snap.AdminActions, a)
			}
			return p.err
		},
	},
}

// parser records the first conversion error and yields zero values after it.
type parser struct {
	row []string
	loc *time.Location
	err error
}

func (p *parser) intAt(i int) int64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(p.row[i]), 10, 64)
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i, err)
	}
	return v
}

func (p *parser) floatAt(i int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p.row[i]), 64)
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i, err)
	}
	return v
}

func (p *parser) boolAt(i int) bool {
	if p.err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(p.row[i])) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no", "":
		return false
	}
	p.err = fmt.Errorf("column %d: invalid boolean %q", i, p.row[i])
	return false
}

func (p *parser) timeAt(i int) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	v, err := time.ParseInLocation(models.TimeLayout, strings.TrimSpace(p.row[i]), p.loc)
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i, err)
	}
	return v
}

func (p *parser) idsAt(i int) []int64 {
	if p.err != nil {
		return nil
	}
	raw := strings.TrimSpace(p.row[i])
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, listSep)
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			p.err = fmt.Errorf("column %d: %w", i, err)
			return nil
		}
		out = append(out, v)
	}
	return out
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.TimeLayout)
}

func formatIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, formatInt(id))
	}
	return strings.Join(parts, listSep)
}
