package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"luvlang_server/middleware"
	"luvlang_server/models"
	"luvlang_server/services"
	"luvlang_server/utils"

	"github.com/gorilla/mux"
)

type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	GetWithAnswers(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfileWithAnswers(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error)
}

type PendingReplayer interface {
	ReplayPending(ctx context.Context, userID string) (int, error)
}

// UserProfileController handles requests related to user profiles
type UserProfileController struct {
	Profiles ProfileStore
	Replayer PendingReplayer
}

func NewUserProfileController(profiles ProfileStore, replayer PendingReplayer) *UserProfileController {
	return &UserProfileController{Profiles: profiles, Replayer: replayer}
}

type profileResponse struct {
	*models.Profile
	PhotoViews []models.PhotoView `json:"photoViews"`
}

func newProfileResponse(p *models.Profile) profileResponse {
	return profileResponse{Profile: p, PhotoViews: p.PhotoViews()}
}

// GetMe replays any queued media writes and returns the caller's profile.
func (c *UserProfileController) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if c.Replayer != nil {
		if applied, err := c.Replayer.ReplayPending(r.Context(), userID); err != nil {
			log.Printf("⚠️ Pending replay for %s failed: %v", userID, err)
		} else if applied > 0 {
			log.Printf("🔁 Applied %d pending writes for %s", applied, userID)
		}
	}

	profile, err := c.Profiles.GetWithAnswers(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, newProfileResponse(profile))
}

// UpdateMe merges the supplied fields into the caller's profile. When the
// profile saves but the answers do not, it answers 207 with a warning.
func (c *UserProfileController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	profile, err := c.Profiles.SaveProfileWithAnswers(r.Context(), userID, update)
	var partial *services.PartialWriteError
	if errors.As(err, &partial) && profile != nil {
		utils.WriteJSONResponse(w, http.StatusMultiStatus, map[string]interface{}{
			"message": "Profile saved, but your answers could not be saved. Please try again.",
			"profile": newProfileResponse(profile),
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"profile": newProfileResponse(profile),
	})
}

// GetPublicProfile returns another user's profile without contact details.
func (c *UserProfileController) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	profile, err := c.Profiles.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	profile.EmailID = ""
	utils.WriteJSONResponse(w, http.StatusOK, newProfileResponse(profile))
}
