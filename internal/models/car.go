package models

import "strings"

type Car struct {
	ID          int64   `json:"id" yaml:"id"`
	Make        string  `json:"make" yaml:"make"`
	Model       string  `json:"model" yaml:"model"`
	Year        int     `json:"year" yaml:"year"`
	Price       float64 `json:"price" yaml:"price"`
	Installment bool    `json:"installment" yaml:"installment"`
	ShowroomID  int64   `json:"showroom_id" yaml:"showroom_id"`
	Available   bool    `json:"available" yaml:"available"`
}

// Label is the short human-readable form used in action details.
func (c Car) Label() string {
	return strings.TrimSpace(c.Make + " " + c.Model)
}

// CarFilter describes an optional set of search criteria. Zero values and nil
// pointers mean "any".
type CarFilter struct {
	Make        string   `json:"make,omitempty"`
	Model       string   `json:"model,omitempty"`
	Year        int      `json:"year,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	Available   *bool    `json:"available,omitempty"`
	Installment *bool    `json:"installment,omitempty"`
}

// Matches reports whether the car satisfies every criterion set on the filter.
func (f CarFilter) Matches(c Car) bool {
	if f.Make != "" && !containsFold(c.Make, f.Make) {
		return false
	}
	if f.Model != "" && !containsFold(c.Model, f.Model) {
		return false
	}
	if f.Year != 0 && c.Year != f.Year {
		return false
	}
	if f.MinPrice != nil && c.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && c.Price > *f.MaxPrice {
		return false
	}
	if f.Available != nil && c.Available != *f.Available {
		return false
	}
	if f.Installment != nil && c.Installment != *f.Installment {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}
