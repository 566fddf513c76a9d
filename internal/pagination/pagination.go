// Package pagination extracts page/limit parameters from query strings for
// the audit listing endpoints.
package pagination

import (
	"net/url"
	"strconv"
)

type Params struct {
	Page   int
	Limit  int
	Offset int
}

const (
	MaxLimit     = 100
	DefaultPage  = 1
	DefaultLimit = 20
)

// FromQuery parses page and limit from query values, clamping to sane
// bounds and computing the offset.
func FromQuery(q url.Values) Params {
	params := Params{Page: DefaultPage, Limit: DefaultLimit}

	if raw := q.Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			params.Page = parsed
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			params.Limit = parsed
		}
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}
	params.Offset = (params.Page - 1) * params.Limit
	return params
}

// HasNext reports whether more items exist past the current page.
func HasNext(offset, limit, total int) bool {
	return offset+limit < total
}
