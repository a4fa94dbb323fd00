package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/models"
)

type addImageReq struct {
	ImageData string `json:"image_data" validate:"required"`
	ImageURL  string `json:"image_url"`
	Caption   string `json:"caption"`
}

// AddDPRImage attaches a photo to a draft report. Each attach bumps the
// report version and snapshots it, the same as any other content write.
func AddDPRImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req addImageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
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
	if dpr.LockedFlag {
		http.Error(w, "DPR is locked and cannot be modified", http.StatusBadRequest)
		return
	}

	img := models.DPRImage{
		ImageID:    uuid.NewString(),
		ImageURL:   req.ImageURL,
		ImageData:  req.ImageData,
		Caption:    req.Caption,
		UploadedAt: models.JSONTime(time.Now()),
	}
	dpr.Images = append(dpr.Images, img)
	dpr.ImageCount = len(dpr.Images)
	dpr.Version++

	userID := requestUserID(r)
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&dpr).Error; err != nil {
			return err
		}
		return captureDPRSnapshot(tx, &dpr, userID)
	})
	if err != nil {
		http.Error(w, "failed to add image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"image_id":    img.ImageID,
		"image_count": dpr.ImageCount,
		"can_submit":  dpr.CanSubmit(),
	})
}

type updateCaptionReq struct {
	Caption string `json:"caption"`
}

// UpdateDPRImageCaption rewrites the caption of one attached image and
// returns the full updated report.
func UpdateDPRImageCaption(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := parseID(vars["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	imageID := vars["imageId"]

	var req updateCaptionReq
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
	if dpr.LockedFlag {
		http.Error(w, "DPR is locked and cannot be modified", http.StatusBadRequest)
		return
	}

	img := dpr.ImageByID(imageID)
	if img == nil {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}
	img.Caption = req.Caption
	dpr.Version++

	userID := requestUserID(r)
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&dpr).Error; err != nil {
			return err
		}
		return captureDPRSnapshot(tx, &dpr, userID)
	})
	if err != nil {
		http.Error(w, "failed to update caption: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dpr)
}
