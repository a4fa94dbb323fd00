package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/models"
)

// DashboardStats is the admin landing-page summary.
func DashboardStats(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Format("2006-01-02")

	var (
		dprsToday        int64
		pendingApprovals int64
		activeProjects   int64
		totalWorkers     int64
	)

	config.DB.Model(&models.DPR{}).Where("dpr_date = ?", today).Count(&dprsToday)
	config.DB.Model(&models.DPR{}).Where("status = ?", models.DPRStatusSubmitted).Count(&pendingApprovals)
	config.DB.Model(&models.Project{}).Where("status = ?", "active").Count(&activeProjects)

	// Sum of today's vendor headcounts across all projects.
	var workers struct{ Total int64 }
	config.DB.Model(&models.WorkerLog{}).
		Select("COALESCE(SUM(total_workers), 0) AS total").
		Where("date = ?", today).Scan(&workers)
	totalWorkers = workers.Total

	var checkIns int64
	config.DB.Model(&models.Attendance{}).
		Where("check_in_time >= ?", startOfDay(time.Now())).Count(&checkIns)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"date":              today,
		"dprs_today":        dprsToday,
		"pending_approvals": pendingApprovals,
		"active_projects":   activeProjects,
		"total_workers":     totalWorkers,
		"check_ins_today":   checkIns,
	})
}
