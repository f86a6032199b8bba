package routes

import (
	"luvlang_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterMediaRoutes sets up photo and voice intro routes under /api
func RegisterMediaRoutes(api *mux.Router, controller *controllers.PhotoController) {
	api.HandleFunc("/photos", controller.UploadPhoto).Methods("POST")
	api.HandleFunc("/photos", controller.DeletePhoto).Methods("DELETE")
	api.HandleFunc("/photos/confirm", controller.ConfirmUpload).Methods("POST")
	api.HandleFunc("/photos/primary", controller.SetPrimaryPhoto).Methods("PUT")
	api.HandleFunc("/voice", controller.UploadVoice).Methods("POST")
}
