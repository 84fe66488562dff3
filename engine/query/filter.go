// Package query filters, sorts and pages the cars loaded into a session.
// All operations are pure and return new slices.
package query

import (
	"strconv"
	"strings"

	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/pkg/fn"
)

// Filters selects cars. Empty strings and false flags match everything.
type Filters struct {
	Query        string `json:"query,omitempty"`
	Type         string `json:"type,omitempty"`
	Fuel         string `json:"fuel,omitempty"`
	Year         string `json:"year,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	Featured     bool   `json:"featured,omitempty"`
	Available    bool   `json:"available,omitempty"`
}

// IsZero reports whether f matches every car.
func (f Filters) IsZero() bool { return f == Filters{} }

// Match reports whether car satisfies every set filter.
func (f Filters) Match(car catalog.Car) bool {
	if f.Query != "" {
		name := strings.ToLower(car.Make + " " + car.Model)
		if !strings.Contains(name, strings.ToLower(f.Query)) {
			return false
		}
	}
	if f.Type != "" && !strings.EqualFold(car.Type, f.Type) {
		return false
	}
	if f.Fuel != "" && !strings.EqualFold(string(car.Fuel), f.Fuel) {
		return false
	}
	if f.Year != "" && strconv.Itoa(car.Year) != strings.TrimSpace(f.Year) {
		return false
	}
	if f.Transmission != "" && !strings.EqualFold(car.Transmission, f.Transmission) {
		return false
	}
	if f.Featured && !car.IsFeatured {
		return false
	}
	if f.Available && !strings.EqualFold(string(car.Status), string(catalog.StatusAvailable)) {
		return false
	}
	return true
}

// Validate rejects filter values no car can have: a non-numeric year, an
// unknown fuel category or a transmission other than automatic or manual.
func (f Filters) Validate() error {
	if y := strings.TrimSpace(f.Year); y != "" {
		if n, err := strconv.Atoi(y); err != nil || n < 1886 || n > 2100 {
			return catalog.NewValidationError("year", f.Year, catalog.ErrInvalidFilter)
		}
	}
	if f.Fuel != "" {
		switch catalog.FuelCategory(strings.ToLower(f.Fuel)) {
		case catalog.FuelPetrol, catalog.FuelDiesel, catalog.FuelElectric, catalog.FuelHybrid, catalog.FuelUnknown:
		default:
			return catalog.NewValidationError("fuel", f.Fuel, catalog.ErrInvalidFilter)
		}
	}
	if f.Transmission != "" &&
		!strings.EqualFold(f.Transmission, catalog.TransmissionAutomatic) &&
		!strings.EqualFold(f.Transmission, catalog.TransmissionManual) {
		return catalog.NewValidationError("transmission", f.Transmission, catalog.ErrInvalidFilter)
	}
	return nil
}

// ApplyFilters returns the cars matching f in their original order.
func ApplyFilters(cars []catalog.Car, f Filters) []catalog.Car {
	if f.IsZero() {
		return append([]catalog.Car(nil), cars...)
	}
	return fn.Filter(cars, f.Match)
}
