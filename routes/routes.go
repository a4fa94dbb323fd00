package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/sitedpr/handlers"
	"p9e.in/sitedpr/middleware"
)

// RegisterRoutes wires every endpoint. Everything under /api/v1 goes
// through the API-key check and JWT auth; the admin subtree additionally
// requires the admin role.
func RegisterRoutes(r *mux.Router) {
	// Public
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.SecurityMiddleware, middleware.JWTMiddleware)

	api.HandleFunc("/me", handlers.GetCurrentUser).Methods("GET")

	// Projects
	api.HandleFunc("/projects", handlers.ListProjects).Methods("GET")
	api.HandleFunc("/projects/{id}", handlers.GetProject).Methods("GET")

	// DPR lifecycle
	api.HandleFunc("/dpr", handlers.CreateDPR).Methods("POST")
	api.HandleFunc("/dpr", handlers.ListDPRs).Methods("GET")
	api.HandleFunc("/dpr/{id}", handlers.GetDPR).Methods("GET")
	api.HandleFunc("/dpr/{id}", handlers.UpdateDPR).Methods("PUT")
	api.HandleFunc("/dpr/{id}", handlers.DeleteDPR).Methods("DELETE")
	api.HandleFunc("/dpr/{id}/submit", handlers.SubmitDPR).Methods("POST")
	api.HandleFunc("/dpr/{id}/images", handlers.AddDPRImage).Methods("POST")
	api.HandleFunc("/dpr/{id}/images/{imageId}/caption", handlers.UpdateDPRImageCaption).Methods("PUT")

	// Version history is read-only; writes answer 405.
	api.HandleFunc("/dpr/{id}/versions", handlers.ListDPRVersions).Methods("GET")
	api.HandleFunc("/dpr/{id}/versions/data", handlers.GetDPRVersion).Methods("GET")
	api.HandleFunc("/dpr/{id}/versions/verify", handlers.VerifyDPRVersion).Methods("GET")
	api.HandleFunc("/dpr/{id}/versions", handlers.SnapshotImmutable).Methods("PUT", "DELETE")
	api.HandleFunc("/dpr/{id}/versions/data", handlers.SnapshotImmutable).Methods("PUT", "DELETE")

	// Worker logs
	api.HandleFunc("/worker-logs", handlers.ListWorkerLogs).Methods("GET")
	api.HandleFunc("/worker-logs", handlers.CreateWorkerLog).Methods("POST")
	api.HandleFunc("/worker-logs/{id}", handlers.UpdateWorkerLog).Methods("PUT")
	api.HandleFunc("/worker-logs/{id}", handlers.DeleteWorkerLog).Methods("DELETE")

	// Attendance
	api.HandleFunc("/attendance/check-in", handlers.CheckIn).Methods("POST")
	api.HandleFunc("/attendance", handlers.ListAttendance).Methods("GET")

	// Notifications
	api.HandleFunc("/notifications", handlers.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods("PUT")

	// Uploads
	api.HandleFunc("/files/upload", handlers.UploadFile).Methods("POST")

	// Admin-only surface
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(func(next http.Handler) http.Handler {
		return middleware.RequireRole([]string{"admin"}, next)
	})
	admin.HandleFunc("/dashboard", handlers.DashboardStats).Methods("GET")
	admin.HandleFunc("/projects", handlers.CreateProject).Methods("POST")
	admin.HandleFunc("/projects/{id}", handlers.UpdateProject).Methods("PUT")
	admin.HandleFunc("/reports/dpr-register", handlers.ExportDPRRegister).Methods("GET")
}
