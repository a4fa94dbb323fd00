package models

import (
	"encoding/json"
	"testing"
)

func TestEntryNormalizeLegacyPurpose(t *testing.T) {
	tests := []struct {
		name    string
		remarks string
		purpose string
		want    string
	}{
		{"purpose fills empty remarks", "", "scaffolding", "scaffolding"},
		{"remarks wins over purpose", "deshuttering", "scaffolding", "deshuttering"},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := WorkerLogEntry{Remarks: tt.remarks, Purpose: tt.purpose}
			e.Normalize()
			if e.Remarks != tt.want {
				t.Errorf("remarks = %q, want %q", e.Remarks, tt.want)
			}
			if e.Purpose != "" {
				t.Errorf("purpose = %q, want cleared", e.Purpose)
			}
		})
	}
}

func TestRecomputeTotal(t *testing.T) {
	tests := []struct {
		name    string
		entries WorkerLogEntryList
		want    int
	}{
		{"empty log", WorkerLogEntryList{}, 0},
		{"single vendor", WorkerLogEntryList{{WorkersCount: 12}}, 12},
		{"multiple vendors", WorkerLogEntryList{{WorkersCount: 5}, {WorkersCount: 8}, {WorkersCount: 0}}, 13},
		{"negative counts ignored", WorkerLogEntryList{{WorkersCount: -3}, {WorkersCount: 10}}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WorkerLog{Entries: tt.entries, TotalWorkers: 999}
			w.RecomputeTotal()
			if w.TotalWorkers != tt.want {
				t.Errorf("total = %d, want %d", w.TotalWorkers, tt.want)
			}
		})
	}
}

func TestEntryListRoundTripsLegacyPayload(t *testing.T) {
	// An old client sends purpose instead of remarks; after decode and
	// normalization the modern field carries the text.
	payload := []byte(`[{"vendor_name":"RK Traders","workers_count":7,"purpose":"brickwork"}]`)

	var w WorkerLog
	if err := json.Unmarshal(payload, &w.Entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	w.NormalizeEntries()
	w.RecomputeTotal()

	if w.Entries[0].Remarks != "brickwork" {
		t.Errorf("remarks = %q, want mapped from purpose", w.Entries[0].Remarks)
	}
	if w.TotalWorkers != 7 {
		t.Errorf("total = %d, want 7", w.TotalWorkers)
	}
}

func TestEntryListScanValue(t *testing.T) {
	list := WorkerLogEntryList{{VendorName: "A", WorkersCount: 3}}
	v, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var back WorkerLogEntryList
	if err := back.Scan(v.([]byte)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(back) != 1 || back[0].VendorName != "A" || back[0].WorkersCount != 3 {
		t.Errorf("round trip = %+v", back)
	}

	var empty WorkerLogEntryList
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("nil column should scan to an empty list, got %v", empty)
	}
}
