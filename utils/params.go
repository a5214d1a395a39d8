package utils

import (
	"net/http"
	"strconv"
	"strings"
)

const MaxPageLimit = 100

type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit/offset query params, falling back to defaultLimit.
func ParsePage(r *http.Request, defaultLimit int) Page {
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return Page{Limit: limit, Offset: offset}
}

// Window returns the [start, end) bounds of p over n items.
func (p Page) Window(n int) (int, int) {
	start := min(p.Offset, n)
	end := min(start+p.Limit, n)
	return start, end
}

func ContainsIgnoreCase(str, substr string) bool {
	return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
}
