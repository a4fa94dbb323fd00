package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/middleware"
	"p9e.in/sitedpr/models"
)

var validate = validator.New()

// parseID validates uuid path/query input so malformed ids come back as
// 400 instead of an empty query result.
func parseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

// listLimit parses a page-size query value, clamped to 1..200 so a zero
// or negative value can neither empty the page nor drop the cap. The
// default is 50.
func listLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 50
	}
	if n > 200 {
		return 200
	}
	return n
}

func requestUserID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		return uuid.Nil
	}
	return id
}

type createDPRReq struct {
	ProjectID         string   `json:"project_id" validate:"required,uuid4"`
	DPRDate           string   `json:"dpr_date" validate:"required,datetime=2006-01-02"`
	ProgressNotes     string   `json:"progress_notes"`
	WeatherConditions string   `json:"weather_conditions"`
	ManpowerCount     int      `json:"manpower_count" validate:"gte=0"`
	Activities        []string `json:"activities_completed"`
	IssuesEncountered string   `json:"issues_encountered"`
}

// CreateDPR files a new report for a project+date. If the supervisor
// already has one for that day the existing report's identity is
// returned instead, so the client can ask the user what to do.
func CreateDPR(w http.ResponseWriter, r *http.Request) {
	var req createDPRReq
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
	var project models.Project
	if err := config.DB.First(&project, "id = ?", projectID).Error; err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	user := middleware.GetUser(r)
	supervisorID := requestUserID(r)

	var existing models.DPR
	err = config.DB.Where("project_id = ? AND dpr_date = ? AND supervisor_id = ?",
		projectID, req.DPRDate, supervisorID).First(&existing).Error
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"exists":  true,
			"dpr_id":  existing.ID,
			"status":  existing.Status,
			"message": "DPR already exists for this date",
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	dpr := models.DPR{
		ProjectID:           projectID,
		DPRDate:             req.DPRDate,
		SupervisorID:        supervisorID,
		SupervisorName:      user.Name,
		Status:              models.DPRStatusDraft,
		ProgressNotes:       req.ProgressNotes,
		WeatherConditions:   req.WeatherConditions,
		ManpowerCount:       req.ManpowerCount,
		ActivitiesCompleted: req.Activities,
		IssuesEncountered:   req.IssuesEncountered,
		Images:              models.DPRImageList{},
		Version:             1,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dpr).Error; err != nil {
			return err
		}
		return captureDPRSnapshot(tx, &dpr, supervisorID)
	})
	if err != nil {
		http.Error(w, "failed to create DPR: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"dpr_id":  dpr.ID,
		"status":  dpr.Status,
		"message": fmt.Sprintf("DPR created. Add minimum %d photos before submitting.", models.MinSubmitImages),
	})
}

// ListDPRs returns reports filtered by project and status. Image payloads
// are trimmed to id+caption; the full data only travels on single-report
// fetches.
func ListDPRs(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.DPR{}).Order("dpr_date DESC")

	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		id, err := parseID(projectID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q = q.Where("project_id = ?", id)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidStatus(models.DPRStatus(status)) {
			http.Error(w, "unknown status filter", http.StatusBadRequest)
			return
		}
		q = q.Where("status = ?", status)
	}

	var dprs []models.DPR
	if err := q.Limit(listLimit(r.URL.Query().Get("limit"))).Find(&dprs).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	for i := range dprs {
		trimmed := make(models.DPRImageList, len(dprs[i].Images))
		for j, img := range dprs[i].Images {
			trimmed[j] = models.DPRImage{ImageID: img.ImageID, Caption: img.Caption}
		}
		dprs[i].Images = trimmed
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"dprs": dprs})
}

// GetDPR returns a single report with its full image payloads.
func GetDPR(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dpr models.DPR
	if err := config.DB.Preload("Project").First(&dpr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "DPR not found", http.StatusNotFound)
		} else {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dpr)
}

type updateDPRReq struct {
	ProgressNotes     *string `json:"progress_notes,omitempty"`
	WeatherConditions *string `json:"weather_conditions,omitempty"`
	ManpowerCount     *int    `json:"manpower_count,omitempty"`
	IssuesEncountered *string `json:"issues_encountered,omitempty"`
	Status            *string `json:"status,omitempty"`
}

// UpdateDPR handles both content edits (progress notes and friends) and
// status transitions (approve/reject travel through here as {status}).
// Content edits are refused once the report is locked; status moves are
// validated against the transition graph instead.
func UpdateDPR(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req updateDPRReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	var dpr models.DPR
	if err := config.DB.First(&dpr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "DPR not found", http.StatusNotFound)
		} else {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	contentEdit := req.ProgressNotes != nil || req.WeatherConditions != nil ||
		req.ManpowerCount != nil || req.IssuesEncountered != nil
	if contentEdit && dpr.LockedFlag {
		http.Error(w, "DPR is locked and cannot be modified", http.StatusBadRequest)
		return
	}

	if req.Status != nil {
		to := models.DPRStatus(*req.Status)
		if !models.ValidStatus(to) {
			http.Error(w, "unknown status "+*req.Status, http.StatusBadRequest)
			return
		}
		if to == models.DPRStatusSubmitted {
			http.Error(w, "use the submit endpoint to submit a DPR", http.StatusBadRequest)
			return
		}
		if dpr.Status == models.DPRStatusApproved && to == models.DPRStatusApproved {
			// Re-approval is a harmless revisit; no new version.
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(dpr)
			return
		}
		if !models.CanTransition(dpr.Status, to) {
			http.Error(w, fmt.Sprintf("cannot move DPR from %s to %s", dpr.Status, to), http.StatusBadRequest)
			return
		}
		dpr.Status = to
	}

	if req.ProgressNotes != nil {
		dpr.ProgressNotes = *req.ProgressNotes
	}
	if req.WeatherConditions != nil {
		dpr.WeatherConditions = *req.WeatherConditions
	}
	if req.ManpowerCount != nil {
		dpr.ManpowerCount = *req.ManpowerCount
	}
	if req.IssuesEncountered != nil {
		dpr.IssuesEncountered = *req.IssuesEncountered
	}

	userID := requestUserID(r)
	dpr.Version++
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&dpr).Error; err != nil {
			return err
		}
		return captureDPRSnapshot(tx, &dpr, userID)
	})
	if err != nil {
		http.Error(w, "failed to update DPR: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if req.Status != nil {
		notifyDPRStatusChange(&dpr, middleware.GetUser(r))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dpr)
}

// SubmitDPR moves a draft to submitted. The image minimum is enforced
// here again even though clients pre-check it; the server is the final
// arbiter.
func SubmitDPR(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dpr models.DPR
	if err := config.DB.First(&dpr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "DPR not found", http.StatusNotFound)
		} else {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if dpr.LockedFlag || dpr.Status != models.DPRStatusDraft {
		http.Error(w, "DPR is already submitted", http.StatusBadRequest)
		return
	}
	if len(dpr.Images) < models.MinSubmitImages {
		http.Error(w, fmt.Sprintf("DPR requires minimum %d images. Current: %d",
			models.MinSubmitImages, len(dpr.Images)), http.StatusBadRequest)
		return
	}

	now := time.Now()
	dpr.Status = models.DPRStatusSubmitted
	dpr.LockedFlag = true
	dpr.SubmittedAt = &now
	dpr.Version++

	userID := requestUserID(r)
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&dpr).Error; err != nil {
			return err
		}
		return captureDPRSnapshot(tx, &dpr, userID)
	})
	if err != nil {
		http.Error(w, "failed to submit DPR: "+err.Error(), http.StatusInternalServerError)
		return
	}

	notifyDPRStatusChange(&dpr, middleware.GetUser(r))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dpr)
}

// DeleteDPR removes a draft. Submitted and later reports stay forever.
func DeleteDPR(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dpr models.DPR
	if err := config.DB.First(&dpr, "id = ?", id).Error; err != nil {
		http.Error(w, "DPR not found", http.StatusNotFound)
		return
	}

	user := middleware.GetUser(r)
	if dpr.SupervisorID != requestUserID(r) && !user.IsAdmin() {
		http.Error(w, "not authorized", http.StatusForbidden)
		return
	}
	if dpr.Status != models.DPRStatusDraft {
		http.Error(w, "only draft DPRs can be deleted", http.StatusBadRequest)
		return
	}

	if err := config.DB.Delete(&dpr).Error; err != nil {
		http.Error(w, "failed to delete DPR: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "DPR deleted"})
}

// notifyDPRStatusChange records an in-app notification for the party who
// cares about the new status: admins hear about submissions, the
// supervisor hears about approvals and rejections. Notification failures
// never fail the transition.
func notifyDPRStatusChange(dpr *models.DPR, actor models.User) {
	var n models.Notification
	switch dpr.Status {
	case models.DPRStatusSubmitted:
		n = models.Notification{
			RecipientRole: "admin",
			Title:         "New DPR Submitted",
			Message: fmt.Sprintf("%s submitted a Daily Progress Report for %s",
				actor.Name, dpr.DPRDate),
			Type: models.NotificationTypeDPRSubmitted,
		}
	case models.DPRStatusApproved:
		n = models.Notification{
			RecipientUserID: &dpr.SupervisorID,
			Title:           "DPR Approved",
			Message:         fmt.Sprintf("Your report for %s was approved", dpr.DPRDate),
			Type:            models.NotificationTypeDPRApproved,
		}
	case models.DPRStatusRejected:
		n = models.Notification{
			RecipientUserID: &dpr.SupervisorID,
			Title:           "DPR Rejected",
			Message:         fmt.Sprintf("Your report for %s was rejected", dpr.DPRDate),
			Type:            models.NotificationTypeDPRRejected,
		}
	default:
		return
	}

	n.ReferenceType = "dpr"
	n.ReferenceID = &dpr.ID
	n.ProjectID = &dpr.ProjectID
	senderID := actor.ID
	n.SenderID = &senderID
	n.SenderName = actor.Name

	if err := config.DB.Create(&n).Error; err != nil {
		log.Printf("[DPR] failed to create notification for %s: %v", dpr.ID, err)
	}
}
