package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"luvlang_server/middleware"
	"luvlang_server/models"
	"luvlang_server/services"
	"luvlang_server/utils"

	"github.com/gorilla/mux"
)

type PlanLister interface {
	ListPlans(ctx context.Context) ([]models.MembershipPlan, error)
}

type Payments interface {
	CreateOrder(ctx context.Context, userID, planID string) (*services.PaymentOrder, error)
	CaptureOrder(ctx context.Context, userID, orderID string) (*services.CaptureResult, error)
}

type PaymentController struct {
	Plans    PlanLister
	Payments Payments
}

func (pc *PaymentController) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := pc.Plans.ListPlans(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (pc *PaymentController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PlanID string `json:"planId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlanID == "" {
		utils.WriteError(w, http.StatusBadRequest, "planId is required")
		return
	}
	order, err := pc.Payments.CreateOrder(r.Context(), middleware.UserIDFromContext(r.Context()), payload.PlanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, order)
}

func (pc *PaymentController) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]
	result, err := pc.Payments.CaptureOrder(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, result)
}
