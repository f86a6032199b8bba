package controllers

import (
	"errors"
	"log"
	"net/http"

	"luvlang_server/services"
	"luvlang_server/utils"
)

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WelcomeHandler provides a welcome message
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the LuvLang API."})
}

// writeServiceError maps service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *services.ValidationError
	var storage *services.StorageError
	switch {
	case errors.As(err, &validation):
		utils.WriteError(w, http.StatusBadRequest, validation.Result.Reason)
	case errors.Is(err, services.ErrProfileNotFound), errors.Is(err, services.ErrPlanNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPhotoNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPhotoLimitReached), errors.Is(err, services.ErrVersionConflict):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrSubscriptionRequired), errors.Is(err, services.ErrPaymentDeclined):
		utils.WriteError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, services.ErrOrderNotOwned):
		utils.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidSwipe), errors.Is(err, services.ErrUnknownEmailKind):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &storage):
		utils.WriteError(w, http.StatusBadGateway, services.UserMessage(storage.Kind))
	default:
		log.Printf("❌ Unhandled error: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
