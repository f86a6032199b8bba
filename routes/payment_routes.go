package routes

import (
	"luvlang_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterPaymentRoutes sets up membership plan and checkout routes under /api
func RegisterPaymentRoutes(api *mux.Router, controller *controllers.PaymentController) {
	api.HandleFunc("/plans", controller.ListPlans).Methods("GET")

	paymentRouter := api.PathPrefix("/payments").Subrouter()
	paymentRouter.HandleFunc("/orders", controller.CreateOrder).Methods("POST")
	paymentRouter.HandleFunc("/orders/{id}/capture", controller.CaptureOrder).Methods("POST")
}
