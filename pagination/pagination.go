// Package pagination parses the `page` / `per_page` query parameters shared by
// every list endpoint and computes offsets and page counts.
package pagination

import (
	"net/http"
	"strconv"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// Defaults used when a request omits the parameters.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params is a validated page request. Page is 1-based.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// FromRequest reads `page` (default 1, must be >= 1) and `per_page`
// (default DefaultPerPage, 1..MaxPerPage). Out-of-range values are a 400.
func FromRequest(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := Params{Page: 1, PerPage: DefaultPerPage}

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, apperror.NewBadRequestError("page must be a positive integer", nil)
		}
		p.Page = v
	}
	if raw := q.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxPerPage {
			return p, apperror.NewBadRequestError("per_page must be between 1 and 100", nil)
		}
		p.PerPage = v
	}
	return p, nil
}

// Offset is the SQL OFFSET for the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages rounds up; zero results is zero pages.
func (p Params) TotalPages(total int64) int {
	if total <= 0 || p.PerPage <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}
