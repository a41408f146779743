package api

import (
	"net/http"
	"strconv"

	"github.com/kevintanjc/bleep/auth"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Page describes the slice of a list returned in a response.
type Page struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// parsePage reads the limit and offset query parameters. limit is capped at
// maxPageLimit; malformed or negative values are a ValidationError.
func parsePage(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit = defaultPageLimit
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 {
			return 0, 0, &auth.ValidationError{Field: "limit", Reason: "must be a positive integer"}
		}
		limit = min(n, maxPageLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, &auth.ValidationError{Field: "offset", Reason: "must be a non-negative integer"}
		}
		offset = n
	}
	return limit, offset, nil
}

// pageBounds returns the [start, end) indices of the page within total items.
func pageBounds(total, limit, offset int) (start, end int, page Page) {
	start = min(offset, total)
	end = min(start+limit, total)
	return start, end, Page{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}
}
