package controllers

import (
	"encoding/json"
	"net/http"

	"luvlang_server/services"
	"luvlang_server/utils"
)

type EmailSender interface {
	Send(req services.EmailRequest) error
}

// FunctionsController serves the small stateless helper endpoints.
type FunctionsController struct {
	Email EmailSender
}

func (fc *FunctionsController) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req services.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" || req.Kind == "" {
		utils.WriteError(w, http.StatusBadRequest, "to and type are required")
		return
	}
	if err := fc.Email.Send(req); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]bool{"sent": true})
}

func (fc *FunctionsController) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, utils.PasswordStrength(payload.Password))
}
