package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"luvlang_server/middleware"
	"luvlang_server/models"
	"luvlang_server/services"
	"luvlang_server/utils"
)

type MatchGenerator interface {
	GenerateDailyMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error)
	GenerateExecutiveMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error)
	ListMatches(ctx context.Context, userID, kind string) ([]models.MatchWithProfile, error)
}

type Swiper interface {
	Swipe(ctx context.Context, from, to, action string) (*services.SwipeResult, error)
	ListMutualMatches(ctx context.Context, userID string) ([]models.Swipe, error)
}

// MatchController handles HTTP requests for match-related actions
type MatchController struct {
	Matches MatchGenerator
	Swipes  Swiper
}

func NewMatchController(matches MatchGenerator, swipes Swiper) *MatchController {
	return &MatchController{Matches: matches, Swipes: swipes}
}

func (mc *MatchController) GenerateDaily(w http.ResponseWriter, r *http.Request) {
	matches, err := mc.Matches.GenerateDailyMatches(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

func (mc *MatchController) GenerateExecutive(w http.ResponseWriter, r *http.Request) {
	matches, err := mc.Matches.GenerateExecutiveMatches(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// ListDaily returns today's suggestions; ?kind=executive selects the other list.
func (mc *MatchController) ListDaily(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = models.MatchKindDaily
	}
	if kind != models.MatchKindDaily && kind != models.MatchKindExecutive {
		utils.WriteError(w, http.StatusBadRequest, "kind must be daily or executive")
		return
	}
	matches, err := mc.Matches.ListMatches(r.Context(), middleware.UserIDFromContext(r.Context()), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

func (mc *MatchController) Swipe(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TargetUserID string `json:"targetUserId"`
		Action       string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	result, err := mc.Swipes.Swipe(r.Context(), middleware.UserIDFromContext(r.Context()), payload.TargetUserID, payload.Action)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, result)
}

func (mc *MatchController) ListMutual(w http.ResponseWriter, r *http.Request) {
	matches, err := mc.Swipes.ListMutualMatches(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"matches": matches})
}
