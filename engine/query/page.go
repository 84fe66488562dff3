package query

import (
	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/pkg/fn"
)

// Paginate returns the 1-based page of pageSize cars. Pages past the end and
// non-positive arguments give an empty slice.
func Paginate(cars []catalog.Car, pageSize, page int) []catalog.Car {
	if pageSize <= 0 || page <= 0 || page-1 >= PageCount(len(cars), pageSize) {
		return []catalog.Car{}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(cars)-start)
	return append([]catalog.Car(nil), cars[start:end]...)
}

// PageCount is the number of pages needed for total items.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total-1)/pageSize + 1
}

// MergeUnique appends the cars of next whose ID is not already present,
// keeping the order of prev then next.
func MergeUnique(prev, next []catalog.Car) []catalog.Car {
	all := make([]catalog.Car, 0, len(prev)+len(next))
	all = append(all, prev...)
	all = append(all, next...)
	return fn.UniqueBy(all, func(c catalog.Car) int { return c.ID })
}

// Page is one rendered view of a session's cars.
type Page struct {
	Cars     []catalog.Car `json:"cars"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Pages    int           `json:"pages"`
}

// View filters, sorts and pages cars in that order. Total counts the
// filtered cars before paging.
func View(cars []catalog.Car, f Filters, sortKey string, page, pageSize int) Page {
	filtered := SortCars(ApplyFilters(cars, f), sortKey)
	return Page{
		Cars:     Paginate(filtered, pageSize, page),
		Total:    len(filtered),
		Page:     page,
		PageSize: pageSize,
		Pages:    PageCount(len(filtered), pageSize),
	}
}
