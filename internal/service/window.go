package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadWindow marks a malformed or non-positive time-window expression.
// The HTTP layer maps it to a bad-request response.
var ErrBadWindow = errors.New("malformed time window")

// ParseWindow parses a trailing-window expression such as "15m", "24h", or
// "7d" into a duration. Units below a day use the standard duration syntax.
func ParseWindow(raw string) (time.Duration, error) {
	expr := strings.TrimSpace(strings.ToLower(raw))
	if expr == "" {
		return 0, fmt.Errorf("%w: empty expression", ErrBadWindow)
	}

	if strings.HasSuffix(expr, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(expr, "d"))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadWindow, raw)
		}
		if days <= 0 {
			return 0, fmt.Errorf("%w: window must be positive", ErrBadWindow)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(expr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadWindow, raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: window must be positive", ErrBadWindow)
	}
	return d, nil
}
