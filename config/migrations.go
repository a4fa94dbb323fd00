package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/sitedpr/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "10012026_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Project{}, &models.DPR{},
					&models.WorkerLog{}, &models.VersionSnapshot{})
			},
		},
		{
			ID: "10012026_snapshot_uniqueness",
			Migrate: func(tx *gorm.DB) error {
				// One snapshot per entity+version; lookups are by entity then version.
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshot_entity_version
					ON version_snapshots (entity_type, entity_id, version)`).Error
			},
		},
		{
			ID: "14012026_add_notifications_and_attendance",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Notification{}, &models.Attendance{})
			},
		},
		{
			ID: "21012026_one_dpr_per_supervisor_day",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_dpr_project_date_supervisor
					ON dprs (project_id, dpr_date, supervisor_id) WHERE deleted_at IS NULL`).Error
			},
		},
	})

	return m.Migrate()
}
