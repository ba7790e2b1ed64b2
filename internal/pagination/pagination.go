// Package pagination implements the fixed-size page scheme used by the
// connection listing: fetch one row more than the page size to learn whether
// a next page exists, avoiding a separate COUNT query.
package pagination

import "gorm.io/gorm"

// PageSize is the fixed number of items per page.
const PageSize = 50

// Page is a 1-based page number clamped to >= 1.
type Page struct {
	Number int
}

// NewPage clamps the given 1-based page number to at least 1.
func NewPage(number int) Page {
	if number < 1 {
		number = 1
	}
	return Page{Number: number}
}

// Offset returns the SQL OFFSET for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * PageSize
}

// Response wraps one page of items with a has-next flag.
type Response[T any] struct {
	Data    []T  `json:"data"`
	Page    int  `json:"page"`
	HasNext bool `json:"has_next"`
}

// NewResponse trims an over-fetched row slice (up to PageSize+1 rows) down to
// the page and derives HasNext from the surplus row.
func NewResponse[T any](rows []T, page Page) Response[T] {
	hasNext := len(rows) > PageSize
	if hasNext {
		rows = rows[:PageSize]
	}
	if rows == nil {
		rows = []T{}
	}
	return Response[T]{Data: rows, Page: page.Number, HasNext: hasNext}
}

// Paginate returns a GORM scope applying OFFSET and the over-fetch LIMIT for
// the given page.
func Paginate(page Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Offset()).Limit(PageSize + 1)
	}
}
