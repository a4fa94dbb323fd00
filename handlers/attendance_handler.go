package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"
	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/middleware"
	"p9e.in/sitedpr/models"
	"p9e.in/sitedpr/utils"
)

// startOfDay returns local midnight for the instant's own location.
// Truncating to 24h buckets would pin the boundary to UTC and shift the
// site's calendar day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type checkInReq struct {
	ProjectID string  `json:"project_id" validate:"required,uuid4"`
	Latitude  float64 `json:"latitude" validate:"required"`
	Longitude float64 `json:"longitude" validate:"required"`
	SelfieURL string  `json:"selfie_url"`
}

// CheckIn records a supervisor's GPS attendance for the day. One
// check-in per user per day; repeats return the existing record. When
// the project carries a geofence the position is evaluated against it
// but an outside position is recorded, not rejected.
func CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	projectID, err := parseID(req.ProjectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := requestUserID(r)
	user := middleware.GetUser(r)

	dayStart := startOfDay(time.Now())
	var existing models.Attendance
	err = config.DB.Where("user_id = ? AND check_in_time >= ?", userID, dayStart).
		First(&existing).Error
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"already_checked_in": true,
			"attendance":         existing,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	att := models.Attendance{
		UserID:      userID,
		UserName:    user.Name,
		Role:        user.Role,
		ProjectID:   &projectID,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		SelfieURL:   req.SelfieURL,
		CheckInTime: time.Now(),
		Status:      "checked_in",
	}

	var project models.Project
	if err := config.DB.First(&project, "id = ?", projectID).Error; err == nil &&
		len(project.GeofenceJSON) > 0 {
		if geom, gerr := utils.ParseGeofence(project.GeofenceJSON); gerr == nil {
			inside := utils.PointInGeofence(geom, req.Latitude, req.Longitude)
			att.WithinGeofence = &inside
			if !inside {
				log.Printf("[ATTENDANCE] %s checked in outside geofence of project %s", user.Name, project.Code)
			}
		} else {
			log.Printf("[ATTENDANCE] project %s has an unparseable geofence: %v", project.Code, gerr)
		}
	}

	if err := config.DB.Create(&att).Error; err != nil {
		http.Error(w, "failed to record attendance: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(att)
}

// ListAttendance returns attendance records. Admins see everyone and may
// filter by user_id; supervisors only ever see their own.
func ListAttendance(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.Attendance{}).Order("check_in_time DESC").Limit(100)

	user := middleware.GetUser(r)
	if user.IsAdmin() {
		if uid := r.URL.Query().Get("user_id"); uid != "" {
			id, err := parseID(uid)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			q = q.Where("user_id = ?", id)
		}
	} else {
		q = q.Where("user_id = ?", requestUserID(r))
	}
	if pid := r.URL.Query().Get("project_id"); pid != "" {
		id, err := parseID(pid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q = q.Where("project_id = ?", id)
	}

	var records []models.Attendance
	if err := q.Find(&records).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"attendance": records})
}
