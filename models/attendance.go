package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is a supervisor's GPS check-in for a project, one per day.
type Attendance struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"attendance_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	UserName  string     `gorm:"size:255" json:"user_name"`
	Role      string     `gorm:"size:50" json:"role"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SelfieURL string  `gorm:"size:500" json:"selfie_url,omitempty"`

	// Result of the project geofence check at check-in time, when the
	// project has a boundary configured.
	WithinGeofence *bool `json:"within_geofence,omitempty"`

	CheckInTime time.Time `gorm:"index;not null" json:"check_in_time"`
	Status      string    `gorm:"size:50;default:'checked_in'" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Attendance) TableName() string {
	return "attendances"
}
