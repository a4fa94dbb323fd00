package handlers

import (
	"testing"
	"time"
)

func TestListLimit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"absent", "", 50},
		{"not a number", "abc", 50},
		{"zero must not empty the page", "0", 50},
		{"negative must not remove the cap", "-1", 50},
		{"normal", "25", 25},
		{"at the cap", "200", 200},
		{"over the cap", "5000", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listLimit(tt.raw); got != tt.want {
				t.Errorf("listLimit(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStartOfDayUsesLocalMidnight(t *testing.T) {
	ist := time.FixedZone("IST", int((5*time.Hour + 30*time.Minute).Seconds()))

	// 01:30 IST is still the previous day in UTC; the day boundary must
	// not slide back across local midnight.
	at := time.Date(2025, 3, 14, 1, 30, 0, 0, ist)
	got := startOfDay(at)

	want := time.Date(2025, 3, 14, 0, 0, 0, 0, ist)
	if !got.Equal(want) {
		t.Errorf("startOfDay(%v) = %v, want local midnight %v", at, got, want)
	}
	if got.Format("2006-01-02") != "2025-03-14" {
		t.Errorf("day = %s, want 2025-03-14", got.Format("2006-01-02"))
	}

	// A 24h truncation of the same instant lands on March 13 local time;
	// the helper must not reproduce that.
	utcTrunc := at.Truncate(24 * time.Hour)
	if utcTrunc.In(ist).Format("2006-01-02") != "2025-03-13" {
		t.Fatalf("truncation sanity check: got %v", utcTrunc.In(ist))
	}
	if got.Equal(utcTrunc) {
		t.Error("startOfDay must not equal UTC truncation for non-UTC zones")
	}
}
