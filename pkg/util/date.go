package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseWindow accepts Go durations plus a "d" day suffix. Zero and negative
// windows are rejected.
func ParseWindow(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid window %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid window %q", s)
	}
	return d, nil
}

// WindowStart returns the inclusive lower bound of a lookback window ending at now.
func WindowStart(now time.Time, window time.Duration) time.Time {
	return now.Add(-window).UTC()
}
