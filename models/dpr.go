package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DPRStatus is the workflow state of a Daily Progress Report.
type DPRStatus string

const (
	DPRStatusDraft     DPRStatus = "draft"
	DPRStatusSubmitted DPRStatus = "submitted"
	DPRStatusApproved  DPRStatus = "approved"
	DPRStatusRejected  DPRStatus = "rejected"
)

// MinSubmitImages is the photo evidence floor: a draft cannot be
// submitted until it carries at least this many site images.
const MinSubmitImages = 4

// dprTransitions defines the legal workflow moves. Approved reports
// accept a repeat approval so a double-tap on the admin screen is not
// an error; rejected is terminal.
var dprTransitions = map[DPRStatus][]DPRStatus{
	DPRStatusDraft:     {DPRStatusSubmitted},
	DPRStatusSubmitted: {DPRStatusApproved, DPRStatusRejected},
	DPRStatusApproved:  {DPRStatusApproved},
	DPRStatusRejected:  {},
}

func ValidStatus(s DPRStatus) bool {
	_, ok := dprTransitions[s]
	return ok
}

func CanTransition(from, to DPRStatus) bool {
	for _, t := range dprTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// StatusColor returns the badge color used by the mobile clients.
func StatusColor(s DPRStatus) string {
	switch s {
	case DPRStatusDraft:
		return "#9E9E9E"
	case DPRStatusSubmitted:
		return "#FF9800"
	case DPRStatusApproved:
		return "#4CAF50"
	case DPRStatusRejected:
		return "#F44336"
	default:
		return "#9E9E9E"
	}
}

// DPRImage is one photo attached to a report. ImageData carries the
// base64 payload on upload and single-report fetches; list endpoints
// trim it.
type DPRImage struct {
	ImageID    string   `json:"image_id"`
	ImageURL   string   `json:"image_url,omitempty"`
	ImageData  string   `json:"image_data,omitempty"`
	Caption    string   `json:"caption"`
	UploadedAt JSONTime `json:"uploaded_at"`
}

// DPRImageList stores the image collection as a single jsonb column.
type DPRImageList []DPRImage

func (l DPRImageList) Value() (driver.Value, error) {
	if l == nil {
		l = DPRImageList{}
	}
	return json.Marshal(l)
}

func (l *DPRImageList) Scan(value interface{}) error {
	if value == nil {
		*l = DPRImageList{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("dpr images: expected []byte from database")
	}
	return json.Unmarshal(b, l)
}

// DPR is a supervisor's Daily Progress Report for one project and one
// calendar day. DPRDate is the literal YYYY-MM-DD day string; it is
// never interpreted through a timezone.
type DPR struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"dpr_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	DPRDate   string    `gorm:"type:date;not null;index" json:"dpr_date"`

	SupervisorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	SupervisorName string    `gorm:"size:255" json:"supervisor_name"`

	Status DPRStatus `gorm:"size:20;not null;default:draft;index" json:"status"`

	ProgressNotes       string         `gorm:"type:text" json:"progress_notes"`
	WeatherConditions   string         `gorm:"size:100" json:"weather_conditions"`
	ManpowerCount       int            `gorm:"default:0" json:"manpower_count"`
	ActivitiesCompleted pq.StringArray `gorm:"type:text[]" json:"activities_completed"`
	IssuesEncountered   string         `gorm:"type:text" json:"issues_encountered"`

	Images     DPRImageList `gorm:"type:jsonb;default:'[]'" json:"images"`
	ImageCount int          `gorm:"default:0" json:"image_count"`

	Version     int        `gorm:"default:1" json:"version"`
	LockedFlag  bool       `gorm:"default:false" json:"locked_flag"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DPR) TableName() string {
	return "dprs"
}

// CanSubmit reports whether the draft meets the submission bar.
func (d *DPR) CanSubmit() bool {
	return d.Status == DPRStatusDraft && len(d.Images) >= MinSubmitImages
}

// ImageByID finds an attached image, or nil.
func (d *DPR) ImageByID(imageID string) *DPRImage {
	for i := range d.Images {
		if d.Images[i].ImageID == imageID {
			return &d.Images[i]
		}
	}
	return nil
}
