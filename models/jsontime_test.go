package models

import (
	"testing"
	"time"
)

func TestJSONTimeAcceptsClientFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"rfc3339", `"2025-05-16T15:32:25Z"`},
		{"rfc3339 nano", `"2025-05-16T15:32:25.181226545Z"`},
		{"microseconds no zone", `"2025-05-16T15:32:25.181226"`},
		{"milliseconds no zone", `"2025-05-16T15:32:25.000"`},
		{"no fraction no zone", `"2025-05-16T15:32:25"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var jt JSONTime
			if err := jt.UnmarshalJSON([]byte(tt.input)); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			got := time.Time(jt)
			if got.Year() != 2025 || got.Month() != time.May || got.Second() != 25 {
				t.Errorf("parsed %s to %v", tt.input, got)
			}
		})
	}
}

func TestJSONTimeRejectsGarbage(t *testing.T) {
	var jt JSONTime
	if err := jt.UnmarshalJSON([]byte(`"yesterday"`)); err == nil {
		t.Error("expected parse failure")
	}
}

func TestJSONTimeMarshalRFC3339(t *testing.T) {
	jt := JSONTime(time.Date(2025, 5, 16, 15, 32, 25, 0, time.UTC))
	b, err := jt.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-05-16T15:32:25Z"` {
		t.Errorf("marshal = %s", b)
	}
}

func TestJSONTimeScan(t *testing.T) {
	now := time.Now()
	var jt JSONTime
	if err := jt.Scan(now); err != nil {
		t.Fatalf("scan time.Time: %v", err)
	}
	if !time.Time(jt).Equal(now) {
		t.Error("scan from time.Time lost the value")
	}
	if err := jt.Scan(42); err == nil {
		t.Error("scanning an int should fail")
	}
}
