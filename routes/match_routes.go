package routes

import (
	"luvlang_server/controllers"

	"github.com/gorilla/mux"
)

func RegisterMatchRoutes(api *mux.Router, controller *controllers.MatchController) {
	matchRouter := api.PathPrefix("/matches").Subrouter()
	matchRouter.HandleFunc("/daily", controller.GenerateDaily).Methods("POST")
	matchRouter.HandleFunc("/daily", controller.ListDaily).Methods("GET")
	matchRouter.HandleFunc("/executive", controller.GenerateExecutive).Methods("POST")
	matchRouter.HandleFunc("/mutual", controller.ListMutual).Methods("GET")

	api.HandleFunc("/swipes", controller.Swipe).Methods("POST")
}
