package domain

import (
	"math"
	"strconv"
	"strings"
)

// Page defaults applied when a request omits or mangles page and limit.
const (
	DefaultPage     = 1
	DefaultLimit    = 10
	DefaultMaxLimit = 100
)

// PageSpec is a 1-based page window.
type PageSpec struct {
	Page  int
	Limit int
}

// Skip returns the number of records before the page. It is never
// negative; a window past math.MaxInt yields 0.
func (p PageSpec) Skip() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// ParsePage coerces page and limit. Non-numeric, zero or negative values fall
// back to the defaults, the limit never exceeds maxLimit and the page is
// capped so its skip fits in an int.
func ParsePage(rawPage, rawLimit string, defaultLimit, maxLimit int) PageSpec {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	spec := PageSpec{
		Page:  positiveOr(rawPage, DefaultPage),
		Limit: positiveOr(rawLimit, defaultLimit),
	}
	if spec.Limit > maxLimit {
		spec.Limit = maxLimit
	}
	if last := math.MaxInt/spec.Limit + 1; spec.Page > last {
		spec.Page = last
	}
	return spec
}

func positiveOr(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
