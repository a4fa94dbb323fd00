package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType defines the type of notification
type NotificationType string

const (
	NotificationTypeDPRSubmitted NotificationType = "dpr_submitted"
	NotificationTypeDPRApproved  NotificationType = "dpr_approved"
	NotificationTypeDPRRejected  NotificationType = "dpr_rejected"
)

// Notification is an in-app message created when a DPR changes hands,
// e.g. the admin alert written on every successful submit.
type Notification struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	// Either a specific user or everybody holding a role.
	RecipientUserID *uuid.UUID `gorm:"type:uuid;index" json:"recipient_user_id,omitempty"`
	RecipientRole   string     `gorm:"size:50;index" json:"recipient_role,omitempty"`

	Title   string           `gorm:"size:255;not null" json:"title"`
	Message string           `gorm:"type:text;not null" json:"message"`
	Type    NotificationType `gorm:"size:50;not null;index" json:"notification_type"`

	ReferenceType string     `gorm:"size:50" json:"reference_type,omitempty"` // dpr, worker_log
	ReferenceID   *uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	ProjectID     *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`

	SenderID   *uuid.UUID `gorm:"type:uuid" json:"sender_id,omitempty"`
	SenderName string     `gorm:"size:255" json:"sender_name,omitempty"`

	IsRead    bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
