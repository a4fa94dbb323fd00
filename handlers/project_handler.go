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

// ListProjects returns the projects visible to the caller. Supervisors
// get active projects only; admins see everything.
func ListProjects(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.Project{}).Order("name ASC")
	if !middleware.GetUser(r).IsAdmin() {
		q = q.Where("status = ?", "active")
	}

	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"projects": projects})
}

func GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var project models.Project
	if err := config.DB.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "project not found", http.StatusNotFound)
		} else {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

type projectReq struct {
	Code        string          `json:"code" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Geofence    json.RawMessage `json:"geofence"`
}

// CreateProject registers a new site. Admin only; routing enforces the
// role.
func CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	project := models.Project{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		GeofenceJSON: req.Geofence,
		CreatedBy:    middleware.GetUser(r).Name,
	}
	if err := config.DB.Create(&project).Error; err != nil {
		http.Error(w, "failed to create project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(project)
}

// UpdateProject edits site details, including the geofence boundary.
func UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var project models.Project
	if err := config.DB.First(&project, "id = ?", id).Error; err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	var req projectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Code != "" {
		project.Code = req.Code
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Status != "" {
		project.Status = req.Status
	}
	if len(req.Geofence) > 0 {
		project.GeofenceJSON = req.Geofence
	}

	if err := config.DB.Save(&project).Error; err != nil {
		http.Error(w, "failed to update project: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}
