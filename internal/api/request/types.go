package request

import (
	"fmt"
	"net/http"
	"strconv"
)

// Limits for list endpoints
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ParseLimit reads the "limit" query parameter. A missing value gives
// DefaultLimit; values above MaxLimit are clamped.
func ParseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return min(limit, MaxLimit), nil
}
