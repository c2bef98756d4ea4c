package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit plus either offset or a 1-based page. An
// explicit offset wins over page.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	limit := positive(q.Get("limit"), defaultLimit)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	} else if page := positive(q.Get("page"), 1); page > 1 {
		offset = (page - 1) * limit
	}
	return Pagination{Limit: limit, Offset: offset}
}

func positive(raw string, fallback int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

// Period is a month/year filter. Zero fields mean "not given"; the finance
// service fills them with the current month.
type Period struct {
	Month int
	Year  int
}

// ParsePeriod reads the optional month and year query parameters and
// records bad values on v.
func ParsePeriod(r *http.Request, v *Validator) Period {
	q := r.URL.Query()
	var p Period
	if raw := q.Get("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			v.Add("month", "must be between 1 and 12")
		} else {
			p.Month = n
		}
	}
	if raw := q.Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1970 || n > 9999 {
			v.Add("year", "must be a four digit year")
		} else {
			p.Year = n
		}
	}
	return p
}
