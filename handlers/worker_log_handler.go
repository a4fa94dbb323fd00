package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/middleware"
	"p9e.in/sitedpr/models"
)

// ListWorkerLogs returns every vendor log for a project on a day.
// project_id and date are both required; date is the literal YYYY-MM-DD
// string used at write time.
func ListWorkerLogs(w http.ResponseWriter, r *http.Request) {
	projectParam := r.URL.Query().Get("project_id")
	date := r.URL.Query().Get("date")
	if projectParam == "" || date == "" {
		http.Error(w, "project_id and date are required", http.StatusBadRequest)
		return
	}
	projectID, err := parseID(projectParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var logs []models.WorkerLog
	if err := config.DB.Where("project_id = ? AND date = ?", projectID, date).
		Order("created_at ASC").Find(&logs).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"logs": logs})
}

type createWorkerLogReq struct {
	ProjectID string                    `json:"project_id" validate:"required,uuid4"`
	Date      string                    `json:"date" validate:"required,datetime=2006-01-02"`
	Entries   models.WorkerLogEntryList `json:"entries"`
}

// CreateWorkerLog opens a new vendor log for a project+date. Totals are
// always recomputed from the rows; any total the client sent is ignored.
func CreateWorkerLog(w http.ResponseWriter, r *http.Request) {
	var req createWorkerLogReq
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

	user := middleware.GetUser(r)
	wl := models.WorkerLog{
		ProjectID:      projectID,
		Date:           req.Date,
		SupervisorID:   requestUserID(r),
		SupervisorName: user.Name,
		Entries:        req.Entries,
	}
	if wl.Entries == nil {
		wl.Entries = models.WorkerLogEntryList{}
	}
	wl.NormalizeEntries()
	wl.RecomputeTotal()

	if err := config.DB.Create(&wl).Error; err != nil {
		http.Error(w, "failed to create worker log: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wl)
}

type updateWorkerLogReq struct {
	Entries models.WorkerLogEntryList `json:"entries"`
}

// UpdateWorkerLog replaces the row set of one log and returns it with
// the recomputed total.
func UpdateWorkerLog(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req updateWorkerLogReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	var wl models.WorkerLog
	if err := config.DB.First(&wl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "worker log not found", http.StatusNotFound)
		} else {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	wl.Entries = req.Entries
	if wl.Entries == nil {
		wl.Entries = models.WorkerLogEntryList{}
	}
	wl.NormalizeEntries()
	wl.RecomputeTotal()

	if err := config.DB.Save(&wl).Error; err != nil {
		http.Error(w, "failed to update worker log: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wl)
}

// DeleteWorkerLog removes a log. Only the owning supervisor or an admin
// may do this.
func DeleteWorkerLog(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var wl models.WorkerLog
	if err := config.DB.First(&wl, "id = ?", id).Error; err != nil {
		http.Error(w, "worker log not found", http.StatusNotFound)
		return
	}

	user := middleware.GetUser(r)
	if wl.SupervisorID != requestUserID(r) && !user.IsAdmin() {
		http.Error(w, "not authorized", http.StatusForbidden)
		return
	}

	if err := config.DB.Delete(&wl).Error; err != nil {
		http.Error(w, "failed to delete worker log: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "worker log deleted"})
}
