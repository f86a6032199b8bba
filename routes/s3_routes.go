package routes

import (
	"net/http"

	"luvlang_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterS3Routes sets up the direct-upload route behind guard.
func RegisterS3Routes(r *mux.Router, controller *controllers.PresignController, guard mux.MiddlewareFunc) {
	r.Handle("/generate-presigned-url", guard(http.HandlerFunc(controller.GeneratePresignedURL))).Methods("POST")
}
