package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"luvlang_server/middleware"
	"luvlang_server/models"
	"luvlang_server/services"
	"luvlang_server/utils"
)

const presignTTL = 5 * time.Minute

// PresignController issues direct-upload URLs after validating the declared file.
type PresignController struct {
	Store  services.ObjectStore
	Policy models.Policy
	Now    func() time.Time
}

// GeneratePresignedURL returns a presigned PUT URL for the caller's own prefix.
func (pc *PresignController) GeneratePresignedURL(w http.ResponseWriter, r *http.Request) {
	log.Println("GeneratePresignedURL: Received request")
	userID := middleware.UserIDFromContext(r.Context())

	var payload struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
		FileSize int64  `json:"fileSize"`
		Kind     string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("Error decoding request body: %v", err)
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.FileName == "" || payload.FileType == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	policy := pc.Policy.Photo
	if payload.Kind == models.MediaKindVoice {
		policy = pc.Policy.Voice
	}
	if v := services.ValidateMedia(policy, payload.FileType, payload.FileSize); !v.OK {
		utils.WriteJSONResponse(w, http.StatusBadRequest, map[string]string{"error": v.Reason, "title": v.Title, "code": string(v.Code)})
		return
	}

	now := time.Now
	if pc.Now != nil {
		now = pc.Now
	}
	objectPath := services.BuildObjectPath(userID, payload.FileName, payload.FileType, now(), services.NewObjectSuffix())
	url, err := pc.Store.PresignUpload(r.Context(), policy.Bucket, objectPath, payload.FileType, payload.FileSize, presignTTL)
	if err != nil {
		log.Printf("Error generating pre-signed URL: %v", err)
		writeServiceError(w, err)
		return
	}

	log.Printf("GeneratePresignedURL: issued URL for %s", objectPath)
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{
		"url":       url,
		"fileName":  objectPath,
		"publicUrl": pc.Store.PublicURL(policy.Bucket, objectPath),
	})
}
