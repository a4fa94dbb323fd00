package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkerLogEntry is one vendor row inside a worker log. Purpose is the
// legacy name for Remarks; old clients still send it, and Normalize
// folds it in before persistence.
type WorkerLogEntry struct {
	VendorName    string  `json:"vendor_name"`
	WorkersCount  int     `json:"workers_count"`
	SkillType     string  `json:"skill_type,omitempty"`
	RatePerWorker float64 `json:"rate_per_worker,omitempty"`
	Remarks       string  `json:"remarks,omitempty"`
	Purpose       string  `json:"purpose,omitempty"`
}

// Normalize maps the legacy purpose field onto remarks. Remarks wins
// when both are present.
func (e *WorkerLogEntry) Normalize() {
	if e.Remarks == "" && e.Purpose != "" {
		e.Remarks = e.Purpose
	}
	e.Purpose = ""
}

// WorkerLogEntryList stores the vendor rows as one jsonb column.
type WorkerLogEntryList []WorkerLogEntry

func (l WorkerLogEntryList) Value() (driver.Value, error) {
	if l == nil {
		l = WorkerLogEntryList{}
	}
	return json.Marshal(l)
}

func (l *WorkerLogEntryList) Scan(value interface{}) error {
	if value == nil {
		*l = WorkerLogEntryList{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("worker log entries: expected []byte from database")
	}
	return json.Unmarshal(b, l)
}

// WorkerLog records the labour deployed by vendors on a project for one
// calendar day. Date is the literal YYYY-MM-DD day string. TotalWorkers
// is always recomputed server-side from the entries; values sent by
// clients are ignored.
type WorkerLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"log_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Date      string    `gorm:"type:date;not null;index" json:"date"`

	SupervisorID   uuid.UUID `gorm:"type:uuid;not null" json:"supervisor_id"`
	SupervisorName string    `gorm:"size:255" json:"supervisor_name"`

	Entries      WorkerLogEntryList `gorm:"type:jsonb;default:'[]'" json:"entries"`
	TotalWorkers int                `gorm:"default:0" json:"total_workers"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WorkerLog) TableName() string {
	return "worker_logs"
}

// NormalizeEntries applies the legacy field mapping to every row.
func (w *WorkerLog) NormalizeEntries() {
	for i := range w.Entries {
		w.Entries[i].Normalize()
	}
}

// RecomputeTotal derives total_workers from the rows. Negative counts
// contribute nothing.
func (w *WorkerLog) RecomputeTotal() {
	total := 0
	for _, e := range w.Entries {
		if e.WorkersCount > 0 {
			total += e.WorkersCount
		}
	}
	w.TotalWorkers = total
}
