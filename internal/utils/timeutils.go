package utils

import (
	"fmt"
	"time"
)

// ParseWindow converts a lookback window such as "1h" or "30m" into a
// duration. Empty input falls back to the provided default.
func ParseWindow(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse window %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("window must be positive, got %s", d)
	}
	return d, nil
}

// WindowBounds returns the [start, end] pair for a lookback window ending
// at the reference time.
func WindowBounds(ref time.Time, window time.Duration) (time.Time, time.Time) {
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	return ref.Add(-window), ref
}
