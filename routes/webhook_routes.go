package routes

import (
	"luvlang_server/controllers"
	"luvlang_server/middleware"

	"github.com/gorilla/mux"
)

// RegisterWebhookRoutes sets up the unauthenticated relay endpoints behind a
// per-client rate limit.
func RegisterWebhookRoutes(r *mux.Router, controller *controllers.WebhookController, limiter *middleware.RateLimiter) {
	hooks := r.PathPrefix("/webhook").Subrouter()
	hooks.Use(middleware.RateLimit(limiter))
	hooks.HandleFunc("", controller.Relay).Methods("POST")
	hooks.HandleFunc("/profile", controller.Relay).Methods("POST")
	hooks.HandleFunc("/matching", controller.Relay).Methods("POST")
}
