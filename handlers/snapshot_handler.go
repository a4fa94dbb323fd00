package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/models"
)

// snapshotMeta is the listing shape: everything except the frozen
// payload itself.
type snapshotMeta struct {
	SnapshotID  string `json:"snapshot_id"`
	Version     int    `json:"version"`
	Checksum    string `json:"data_checksum"`
	IsLatest    bool   `json:"is_latest"`
	GeneratedBy string `json:"generated_by"`
	GeneratedAt string `json:"generated_at"`
}

// ListDPRVersions returns snapshot metadata for a report, newest first.
func ListDPRVersions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var snaps []models.VersionSnapshot
	if err := config.DB.Where("entity_type = ? AND entity_id = ?", models.SnapshotEntityDPR, id).
		Order("version DESC").Find(&snaps).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(snaps) == 0 {
		http.Error(w, "no versions found for DPR", http.StatusNotFound)
		return
	}

	metas := make([]snapshotMeta, len(snaps))
	for i, s := range snaps {
		metas[i] = snapshotMeta{
			SnapshotID:  s.ID.String(),
			Version:     s.Version,
			Checksum:    s.DataChecksum,
			IsLatest:    s.IsLatest,
			GeneratedBy: s.GeneratedBy.String(),
			GeneratedAt: s.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entity_id": id,
		"versions":  metas,
	})
}

// GetDPRVersion returns one frozen snapshot including its payload.
// ?version=N picks a specific version; without it the latest wins.
func GetDPRVersion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q := config.DB.Where("entity_type = ? AND entity_id = ?", models.SnapshotEntityDPR, id)
	if v := r.URL.Query().Get("version"); v != "" {
		var version int
		if _, err := fmt.Sscanf(v, "%d", &version); err != nil || version < 1 {
			http.Error(w, "invalid version number", http.StatusBadRequest)
			return
		}
		q = q.Where("version = ?", version)
	} else {
		q = q.Where("is_latest = ?", true)
	}

	var snap models.VersionSnapshot
	if err := q.First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "version not found", http.StatusNotFound)
		} else {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// VerifyDPRVersion recomputes the checksum of every stored snapshot for
// a report and flags any payload drift.
func VerifyDPRVersion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var snaps []models.VersionSnapshot
	if err := config.DB.Where("entity_type = ? AND entity_id = ?", models.SnapshotEntityDPR, id).
		Order("version ASC").Find(&snaps).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(snaps) == 0 {
		http.Error(w, "no versions found for DPR", http.StatusNotFound)
		return
	}

	type verifyResult struct {
		Version int  `json:"version"`
		Valid   bool `json:"valid"`
	}
	results := make([]verifyResult, len(snaps))
	allValid := true
	for i, s := range snaps {
		ok := s.VerifyChecksum()
		results[i] = verifyResult{Version: s.Version, Valid: ok}
		if !ok {
			allValid = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entity_id": id,
		"all_valid": allValid,
		"results":   results,
	})
}

// SnapshotImmutable answers any attempt to modify or delete a snapshot.
// History is append-only.
func SnapshotImmutable(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "snapshots are immutable", http.StatusMethodNotAllowed)
}
