package middleware

import (
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

type APIClientConfig struct {
	AppName        string
	AllowedMethods map[string]bool
}

var apiKeyConfigs = map[string]APIClientConfig{
	os.Getenv("MOBILE_APP_KEY"): {
		AppName: "SupervisorApp",
		AllowedMethods: map[string]bool{
			http.MethodGet:  true,
			http.MethodPost: true,
			http.MethodPut:  true,
		},
	},
	os.Getenv("ADMIN_PORTAL_KEY"): {
		AppName: "AdminPortal",
		AllowedMethods: map[string]bool{
			http.MethodGet:    true,
			http.MethodPost:   true,
			http.MethodPut:    true,
			http.MethodDelete: true,
		},
	},
}

// SecurityMiddleware enforces the per-app API key and logs every request.
// When no keys are configured (local development) it only logs.
func SecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appName := "-"
		if os.Getenv("MOBILE_APP_KEY") != "" || os.Getenv("ADMIN_PORTAL_KEY") != "" {
			apiKey := r.Header.Get("x-api-key")
			clientConfig, ok := apiKeyConfigs[apiKey]
			if !ok || apiKey == "" {
				http.Error(w, "Invalid or missing API key", http.StatusUnauthorized)
				log.Printf("[SECURITY] Blocked - invalid API key. IP=%s Path=%s", getClientIP(r), r.URL.Path)
				return
			}
			if !clientConfig.AllowedMethods[r.Method] {
				http.Error(w, "This HTTP method is not allowed for this app", http.StatusMethodNotAllowed)
				log.Printf("[SECURITY] Denied - method not allowed. App=%s Method=%s Path=%s",
					clientConfig.AppName, r.Method, r.URL.Path)
				return
			}
			appName = clientConfig.AppName
		}

		log.Printf("[SECURITY] Allowed - App=%s IP=%s Path=%s Method=%s Time=%s",
			appName, getClientIP(r), r.URL.Path, r.Method, time.Now().Format(time.RFC3339))

		next.ServeHTTP(w, r)
	})
}

// Extracts client IP from headers or remote addr
func getClientIP(r *http.Request) string {
	// Priority: X-Forwarded-For -> X-Real-IP -> RemoteAddr
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.Split(ip, ",")[0]
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
