package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/WessleyAI/carbrowse/engine/catalog"
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey is a parsed "<field>-<asc|desc>" key.
type SortKey struct {
	Field string
	Dir   Direction
}

func (k SortKey) String() string { return k.Field + "-" + string(k.Dir) }

// field extracts a sortable value. ok is false when the car has no value,
// which sorts last in either direction.
type field struct {
	num func(catalog.Car) (float64, bool)
	str func(catalog.Car) (string, bool)
}

func numeric(get func(catalog.Car) float64) field {
	return field{num: func(c catalog.Car) (float64, bool) {
		v := get(c)
		return v, v != 0
	}}
}

func text(get func(catalog.Car) string) field {
	return field{str: func(c catalog.Car) (string, bool) {
		v := strings.ToLower(get(c))
		return v, v != "" && v != catalog.Placeholder
	}}
}

var fields = map[string]field{
	"pricePerDay": numeric(func(c catalog.Car) float64 { return float64(c.PricePerDay) }),
	"year":        numeric(func(c catalog.Car) float64 { return float64(c.Year) }),
	"engine":      numeric(func(c catalog.Car) float64 { return float64(c.Engine) }),
	"mileage":     numeric(func(c catalog.Car) float64 { return float64(c.Mileage) }),
	"rating":      numeric(func(c catalog.Car) float64 { return c.Rating }),
	"make":        text(func(c catalog.Car) string { return c.Make }),
	"model":       text(func(c catalog.Car) string { return c.Model }),
	"type":        text(func(c catalog.Car) string { return c.Type }),
}

// SortFields lists the fields SortCars understands.
func SortFields() []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ParseSortKey parses "<field>-<asc|desc>".
func ParseSortKey(key string) (SortKey, bool) {
	i := strings.LastIndexByte(key, '-')
	if i <= 0 {
		return SortKey{}, false
	}
	k := SortKey{Field: key[:i], Dir: Direction(key[i+1:])}
	if _, ok := fields[k.Field]; !ok || (k.Dir != Asc && k.Dir != Desc) {
		return SortKey{}, false
	}
	return k, true
}

// SortCars returns cars ordered by key. The sort is stable and cars missing
// the field come last in both directions. An unknown key returns the input
// unchanged.
func SortCars(cars []catalog.Car, key string) []catalog.Car {
	k, ok := ParseSortKey(key)
	if !ok {
		return cars
	}
	f := fields[k.Field]
	out := slices.Clone(cars)
	slices.SortStableFunc(out, func(a, b catalog.Car) int {
		var c int
		var aok, bok bool
		if f.num != nil {
			av, ok1 := f.num(a)
			bv, ok2 := f.num(b)
			c, aok, bok = cmp.Compare(av, bv), ok1, ok2
		} else {
			av, ok1 := f.str(a)
			bv, ok2 := f.str(b)
			c, aok, bok = cmp.Compare(av, bv), ok1, ok2
		}
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		if k.Dir == Desc {
			return -c
		}
		return c
	})
	return out
}
