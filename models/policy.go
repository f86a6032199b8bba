package models

import (
	"mime"
	"strings"
)

// MediaPolicy describes what a single upload kind accepts.
type MediaPolicy struct {
	Kind         string   `json:"kind"`
	Bucket       string   `json:"bucket"`
	AllowedTypes []string `json:"allowedTypes"`
	MaxBytes     int64    `json:"maxBytes"`
}

// Allows reports whether contentType is in the allow-list. Parameters and
// case are ignored, so "Image/JPEG; charset=binary" matches "image/jpeg".
func (p MediaPolicy) Allows(contentType string) bool {
	mediaType := NormalizeMediaType(contentType)
	if mediaType == "" {
		return false
	}
	for _, t := range p.AllowedTypes {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

// NormalizeMediaType strips parameters from a Content-Type value and
// lowercases it. Unparseable values normalise to "".
func NormalizeMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

// Policy is the one place validation limits live. Every validator reads it.
type Policy struct {
	Photo        MediaPolicy `json:"photo"`
	Voice        MediaPolicy `json:"voice"`
	MaxPhotos    int         `json:"maxPhotos"`
	MinBioLength int         `json:"minBioLength"`
	MaxBioLength int         `json:"maxBioLength"`
}

const (
	MediaKindPhoto = "photo"
	MediaKindVoice = "voice"
)

// DefaultPolicy returns the production limits.
func DefaultPolicy() Policy {
	return Policy{
		Photo: MediaPolicy{
			Kind:         MediaKindPhoto,
			Bucket:       ProfilePhotosBucket,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
			MaxBytes:     5 * 1024 * 1024,
		},
		Voice: MediaPolicy{
			Kind:         MediaKindVoice,
			Bucket:       VoiceRecordingsBucket,
			AllowedTypes: []string{"audio/webm", "audio/mpeg", "audio/mp4", "audio/wav"},
			MaxBytes:     10 * 1024 * 1024,
		},
		MaxPhotos:    6,
		MinBioLength: 50,
		MaxBioLength: 500,
	}
}
