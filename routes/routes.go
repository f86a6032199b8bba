package routes

import (
	"net/http"

	"luvlang_server/controllers"
	"luvlang_server/middleware"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up the public routes for the application
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/welcome", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/privacy-policy", PrivacyPolicyHandler).Methods("GET")
}

// Guard chains bearer-token auth with the session device check.
func Guard(auth *middleware.Authenticator, sessions middleware.SessionChecker) mux.MiddlewareFunc {
	check := middleware.SessionGuard(sessions)
	return func(next http.Handler) http.Handler {
		return auth.Middleware(check(next))
	}
}
