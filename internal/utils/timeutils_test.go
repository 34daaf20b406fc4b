package utils

import (
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty uses fallback", value: "", want: time.Hour},
		{name: "minutes", value: "30m", want: 30 * time.Minute},
		{name: "hours", value: "2h", want: 2 * time.Hour},
		{name: "garbage", value: "soon", wantErr: true},
		{name: "negative", value: "-5m", wantErr: true},
		{name: "zero", value: "0s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindow(tt.value, time.Hour)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWindow: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseWindow(%q) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestWindowBounds(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	start, end := WindowBounds(ref, time.Hour)
	if !end.Equal(ref) {
		t.Errorf("end = %s, want %s", end, ref)
	}
	if !start.Equal(ref.Add(-time.Hour)) {
		t.Errorf("start = %s", start)
	}

	start, end = WindowBounds(time.Time{}, time.Hour)
	if end.IsZero() || !end.After(start) {
		t.Errorf("zero reference should use now: start=%s end=%s", start, end)
	}
}
