package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitedpr/models"
)

// captureDPRSnapshot serializes the report's full state and stores it as
// the snapshot for dpr.Version. The caller bumps the version first and
// runs inside the same transaction, so a failed capture rolls the
// mutation back with it.
func captureDPRSnapshot(tx *gorm.DB, dpr *models.DPR, userID uuid.UUID) error {
	data, err := json.Marshal(dpr)
	if err != nil {
		return fmt.Errorf("marshal dpr %s: %w", dpr.ID, err)
	}

	if err := tx.Model(&models.VersionSnapshot{}).
		Where("entity_type = ? AND entity_id = ?", models.SnapshotEntityDPR, dpr.ID).
		Update("is_latest", false).Error; err != nil {
		return fmt.Errorf("demote previous snapshots: %w", err)
	}

	snapshot := models.VersionSnapshot{
		EntityType:   models.SnapshotEntityDPR,
		EntityID:     dpr.ID,
		Version:      dpr.Version,
		DataJSON:     data,
		DataChecksum: models.SnapshotChecksum(data),
		IsLatest:     true,
		GeneratedBy:  userID,
	}
	if err := tx.Create(&snapshot).Error; err != nil {
		return fmt.Errorf("create snapshot v%d: %w", dpr.Version, err)
	}
	return nil
}
