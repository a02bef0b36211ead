package request

import (
	"net/http"
	"strconv"

	"github.com/edvin/saaslens/internal/core"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Pagination is the parsed limit/cursor pair of a list request.
type Pagination struct {
	Limit  int
	Cursor string
}

// ParsePagination reads limit and cursor from the query string. Missing,
// malformed or non-positive limits fall back to DefaultLimit; larger ones are
// clamped to MaxLimit.
func ParsePagination(r *http.Request) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: DefaultLimit, Cursor: q.Get("cursor")}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

// ListOptions converts the page into store options.
func (p Pagination) ListOptions() core.ListOptions {
	return core.ListOptions{Limit: p.Limit, Cursor: p.Cursor}
}
