// Package api - Router setup
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(h.RecoveryMiddleware)
	r.Use(CORSMiddleware)
	r.Use(h.LoggingMiddleware)

	// Public routes
	r.HandleFunc("/", h.ServerInfo).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/admin", h.AdminLogin).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(h.AuthMiddleware)

	// Cases
	protected.HandleFunc("/cases", h.ListCases).Methods("GET")
	protected.HandleFunc("/cases/{id}", h.GetCase).Methods("GET")
	protected.HandleFunc("/cases/{id}/open", h.OpenCase).Methods("POST")
	protected.HandleFunc("/cases/{id}/history", h.GetHistory).Methods("GET")

	// Keys
	protected.HandleFunc("/keys/{case_id}", h.GetKeys).Methods("GET")

	// Skins
	protected.HandleFunc("/skins/{material}", h.GetSkin).Methods("GET")

	// WebSocket for live reveal frames
	protected.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	// Admin routes
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(h.AdminMiddleware)
	admin.HandleFunc("/keys/add", h.AddKeys).Methods("POST")
	admin.HandleFunc("/keys/remove", h.RemoveKeys).Methods("POST")
	admin.HandleFunc("/keys/set", h.SetKeys).Methods("POST")
	admin.HandleFunc("/reload", h.Reload).Methods("POST")
	admin.HandleFunc("/control", h.ControlStatus).Methods("GET")
	admin.HandleFunc("/control/disable", h.Disable).Methods("POST")
	admin.HandleFunc("/control/enable", h.Enable).Methods("POST")

	return r
}

// NotFoundHandler handles 404 errors
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}
