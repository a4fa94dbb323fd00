package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/middleware"
	"p9e.in/sitedpr/models"
)

// ListNotifications returns the caller's inbox: messages addressed to
// them directly plus broadcasts to their role.
func ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	role := middleware.GetRole(r)

	q := config.DB.Where("recipient_user_id = ? OR recipient_role = ?", userID, role).
		Order("created_at DESC").Limit(100)
	if r.URL.Query().Get("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := q.Find(&notifications).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var unread int64
	config.DB.Model(&models.Notification{}).
		Where("(recipient_user_id = ? OR recipient_role = ?) AND is_read = ?", userID, role, false).
		Count(&unread)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkNotificationRead flags one message as read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	res := config.DB.Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		http.Error(w, "db error: "+res.Error.Error(), http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "marked as read"})
}
