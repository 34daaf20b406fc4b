package utils

import (
	"sort"
	"sync"
	"time"
)

const defaultLatencyWindow = 512

// LatencyTracker keeps a sliding window of recent duration samples for
// percentile reporting in service log lines. Not a replacement for the
// prometheus histograms; this feeds human-facing summaries only.
type LatencyTracker struct {
	mu       sync.RWMutex
	window   []time.Duration
	capacity int
}

// NewLatencyTracker creates a tracker holding up to capacity samples.
func NewLatencyTracker(capacity int) *LatencyTracker {
	if capacity <= 0 {
		capacity = defaultLatencyWindow
	}
	return &LatencyTracker{capacity: capacity}
}

// Observe records a duration, evicting the oldest sample once full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.window = append(l.window, d)
	if len(l.window) > l.capacity {
		copy(l.window, l.window[1:])
		l.window = l.window[:l.capacity]
	}
}

// Percentile returns the p-th percentile (0-100) of the current window,
// or zero with no samples.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.window)
	if n == 0 {
		return 0
	}

	sorted := append([]time.Duration(nil), l.window...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	index := int((p / 100.0) * float64(n-1))
	return sorted[index]
}

// Count reports how many samples the window currently holds.
func (l *LatencyTracker) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.window)
}
