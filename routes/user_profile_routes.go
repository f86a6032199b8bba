package routes

import (
	"luvlang_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up routes for user profile operations under /api/profiles
func RegisterUserProfileRoutes(api *mux.Router, controller *controllers.UserProfileController) {
	profileRouter := api.PathPrefix("/profiles").Subrouter()

	// "me" is registered first so it is not captured by {userId}.
	profileRouter.HandleFunc("/me", controller.GetMe).Methods("GET")
	profileRouter.HandleFunc("/me", controller.UpdateMe).Methods("PUT")
	profileRouter.HandleFunc("/{userId}", controller.GetPublicProfile).Methods("GET")
}
