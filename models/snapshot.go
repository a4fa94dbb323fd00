package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SnapshotEntityType names the kind of record a snapshot freezes.
type SnapshotEntityType string

const (
	SnapshotEntityDPR SnapshotEntityType = "dpr"
)

// VersionSnapshot is an immutable point-in-time copy of an entity taken
// on every write. Snapshots are never updated or deleted; the latest one
// per entity carries is_latest.
type VersionSnapshot struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"snapshot_id"`
	EntityType SnapshotEntityType `gorm:"size:50;not null;index" json:"entity_type"`
	EntityID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"entity_id"`
	Version    int                `gorm:"not null" json:"version"`

	DataJSON     datatypes.JSON `gorm:"type:jsonb;not null" json:"data_json"`
	DataChecksum string         `gorm:"size:64;not null" json:"data_checksum"`
	IsLatest     bool           `gorm:"default:false;index" json:"is_latest"`

	GeneratedBy uuid.UUID `gorm:"type:uuid" json:"generated_by"`
	GeneratedAt time.Time `gorm:"autoCreateTime" json:"generated_at"`
}

func (VersionSnapshot) TableName() string {
	return "version_snapshots"
}

// SnapshotChecksum returns the hex sha256 of the frozen payload.
func SnapshotChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum recomputes the stored payload's digest and compares.
func (s *VersionSnapshot) VerifyChecksum() bool {
	return SnapshotChecksum(s.DataJSON) == s.DataChecksum
}
