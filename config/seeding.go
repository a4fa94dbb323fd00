package config

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/sitedpr/models"
)

// RunAllSeeding seeds the minimum records a fresh install needs. Every
// step skips rows that already exist, so re-running is safe.
func RunAllSeeding() error {
	log.Println("=== Starting Database Seeding ===")

	log.Println("[1/2] Seeding Default Users...")
	if err := SeedUsers(); err != nil {
		return err
	}

	log.Println("[2/2] Seeding Demo Project...")
	if err := SeedProjects(); err != nil {
		return err
	}

	log.Println("=== Database Seeding Complete ===")
	return nil
}

// SeedUsers creates the default admin and supervisor accounts.
func SeedUsers() error {
	users := []struct {
		name     string
		email    string
		phone    string
		password string
		role     string
	}{
		{"Site Admin", "admin@sitedpr.local", "9000000001", "Admin@1234", "admin"},
		{"Site Supervisor", "supervisor@sitedpr.local", "9000000002", "Super@1234", "supervisor"},
	}

	for _, u := range users {
		var existing models.User
		err := DB.Where("email = ?", u.email).First(&existing).Error
		if err == nil {
			log.Printf("User %s - skipped (already exists)", u.email)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := models.User{
			Name:         u.name,
			Email:        u.email,
			Phone:        u.phone,
			PasswordHash: string(hash),
			Role:         u.role,
			IsActive:     true,
		}
		if err := DB.Create(&user).Error; err != nil {
			return err
		}
		log.Printf("User %s - inserted", u.email)
	}
	return nil
}

// SeedProjects creates a demo project so a fresh install has somewhere to
// file a DPR.
func SeedProjects() error {
	var existing models.Project
	err := DB.Where("code = ?", "DEMO").First(&existing).Error
	if err == nil {
		log.Println("Project DEMO - skipped (already exists)")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	project := models.Project{
		Code:        "DEMO",
		Name:        "Demo Pipeline Project",
		Description: "Seeded project for trying out daily progress reports",
		Status:      "active",
		CreatedBy:   "seed",
	}
	if err := DB.Create(&project).Error; err != nil {
		return err
	}
	log.Println("Project DEMO - inserted")
	return nil
}
