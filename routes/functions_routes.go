package routes

import (
	"luvlang_server/controllers"

	"github.com/gorilla/mux"
)

func RegisterFunctionsRoutes(api *mux.Router, functions *controllers.FunctionsController, admin *controllers.AdminController) {
	api.HandleFunc("/functions/send-email", functions.SendEmail).Methods("POST")
	api.HandleFunc("/auth/password-strength", functions.PasswordStrength).Methods("POST")
	api.HandleFunc("/admin/reconcile", admin.ReconcileMe).Methods("POST")
}
