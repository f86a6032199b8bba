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
)

type Uploader interface {
	Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error)
	ConfirmUpload(ctx context.Context, req services.ConfirmRequest) (*services.UploadResult, error)
}

type PhotoEditor interface {
	RemovePhoto(ctx context.Context, userID, url string) (*models.Profile, error)
	SetPrimaryPhoto(ctx context.Context, userID, url string) (*models.Profile, error)
}

// PhotoController handles profile media uploads and photo list edits.
type PhotoController struct {
	Uploads  Uploader
	Profiles PhotoEditor
	Store    services.ObjectStore
	Policy   models.Policy
}

func NewPhotoController(uploads Uploader, profiles PhotoEditor, store services.ObjectStore, policy models.Policy) *PhotoController {
	return &PhotoController{Uploads: uploads, Profiles: profiles, Store: store, Policy: policy}
}

func (pc *PhotoController) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	pc.upload(w, r, models.MediaKindPhoto)
}

func (pc *PhotoController) UploadVoice(w http.ResponseWriter, r *http.Request) {
	pc.upload(w, r, models.MediaKindVoice)
}

// upload reads the multipart "file" field and hands it to the orchestrator.
func (pc *PhotoController) upload(w http.ResponseWriter, r *http.Request, kind string) {
	userID := middleware.UserIDFromContext(r.Context())

	limit := pc.Policy.Photo.MaxBytes
	if kind == models.MediaKindVoice {
		limit = pc.Policy.Voice.MaxBytes
	}
	// Headroom past the policy limit; the validator rejects oversized files.
	r.Body = http.MaxBytesReader(w, r.Body, 2*limit+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		log.Printf("Error parsing upload form: %v", err)
		utils.WriteError(w, http.StatusBadRequest, "Expected a multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		utils.WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}

	result, err := pc.Uploads.Upload(r.Context(), services.UploadRequest{
		UserID:      userID,
		Kind:        kind,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Reset:       func() { r.MultipartForm.RemoveAll() },
	})
	if err != nil {
		writeUploadFailure(w, result, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, result)
}

// ConfirmUpload records an object the client PUT through a presigned URL.
func (pc *PhotoController) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	var payload struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Path == "" {
		utils.WriteError(w, http.StatusBadRequest, "path is required")
		return
	}
	if payload.Kind != "" && payload.Kind != models.MediaKindPhoto && payload.Kind != models.MediaKindVoice {
		utils.WriteError(w, http.StatusBadRequest, "kind must be photo or voice")
		return
	}

	result, err := pc.Uploads.ConfirmUpload(r.Context(), services.ConfirmRequest{UserID: userID, Kind: payload.Kind, Path: payload.Path})
	if err != nil {
		writeUploadFailure(w, result, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, result)
}

func writeUploadFailure(w http.ResponseWriter, result *services.UploadResult, err error) {
	status := http.StatusInternalServerError
	switch result.FailedAt {
	case services.StateValidating:
		switch {
		case errors.Is(err, services.ErrPhotoLimitReached):
			status = http.StatusConflict
		case errors.Is(err, services.ErrInvalidObjectPath):
			status = http.StatusForbidden
		case errors.Is(err, services.ErrObjectNotFound):
			status = http.StatusNotFound
		case errors.As(err, new(*services.StorageError)):
			status = http.StatusBadGateway
		default:
			status = http.StatusBadRequest
		}
	case services.StateUploading, services.StateResolvingURL:
		status = http.StatusBadGateway
	case services.StatePersisting:
		status = http.StatusConflict
	}
	utils.WriteJSONResponse(w, status, map[string]interface{}{
		"error":  lastMessage(result),
		"result": result,
	})
}

func lastMessage(result *services.UploadResult) string {
	if n := len(result.Notifications); n > 0 {
		return result.Notifications[n-1].Message
	}
	return "Upload failed"
}

type photoRequest struct {
	URL string `json:"url"`
}

func decodePhotoRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload photoRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.URL == "" {
		utils.WriteError(w, http.StatusBadRequest, "url is required")
		return "", false
	}
	return payload.URL, true
}

// DeletePhoto drops a photo from the profile and then removes its object.
func (pc *PhotoController) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	url, ok := decodePhotoRequest(w, r)
	if !ok {
		return
	}

	profile, err := pc.Profiles.RemovePhoto(r.Context(), userID, url)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	bucket := pc.Policy.Photo.Bucket
	if objectPath, owned := services.ObjectPathFromURL(pc.Store, bucket, url); owned {
		if err := pc.Store.Remove(r.Context(), bucket, objectPath); err != nil {
			// The reference is gone; reconciliation collects the object later.
			log.Printf("⚠️ Could not remove %s after unlinking it: %v", objectPath, err)
		}
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"profile": profile, "photos": profile.PhotoViews()})
}

func (pc *PhotoController) SetPrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	url, ok := decodePhotoRequest(w, r)
	if !ok {
		return
	}
	profile, err := pc.Profiles.SetPrimaryPhoto(r.Context(), userID, url)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"profile": profile, "photos": profile.PhotoViews()})
}
