package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"luvlang_server/middleware"
	"luvlang_server/services"
	"luvlang_server/utils"
)

type Reconciler interface {
	Reconcile(ctx context.Context, userID string, opts services.ReconcileOptions) (*services.ReconcileReport, error)
}

type AdminController struct {
	Reconciler  Reconciler
	GracePeriod time.Duration
}

// ReconcileMe compares the caller's stored photos with their profile.
// ?deleteOrphans=true removes orphans older than the grace period.
func (ac *AdminController) ReconcileMe(w http.ResponseWriter, r *http.Request) {
	deleteOrphans, _ := strconv.ParseBool(r.URL.Query().Get("deleteOrphans"))
	report, err := ac.Reconciler.Reconcile(r.Context(), middleware.UserIDFromContext(r.Context()), services.ReconcileOptions{
		DeleteOrphans: deleteOrphans,
		GracePeriod:   ac.GracePeriod,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, report)
}
