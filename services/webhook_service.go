package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"luvlang_server/models"

	"github.com/google/uuid"
)

// WebhookService audits inbound webhook deliveries and forwards profile
// changes to an external listener.
type WebhookService struct {
	Dynamo     *DynamoService
	HTTP       *http.Client
	ForwardURL string
	Now        func() time.Time
}

func (ws *WebhookService) now() time.Time {
	if ws.Now != nil {
		return ws.Now()
	}
	return time.Now()
}

// Record writes one audit row for a delivery on route.
func (ws *WebhookService) Record(ctx context.Context, route string, payload []byte, remoteAddr string) (*models.WebhookAudit, error) {
	audit := models.WebhookAudit{
		AuditID:    uuid.New().String(),
		Route:      route,
		Payload:    string(payload),
		RemoteAddr: remoteAddr,
		ReceivedAt: ws.now().UTC().Format(time.RFC3339),
	}
	if err := ws.Dynamo.PutItem(ctx, models.WebhookAuditTable, audit); err != nil {
		log.Printf("❌ Failed to audit webhook on %s: %v", route, err)
		return nil, err
	}
	return &audit, nil
}

type profileEvent struct {
	Event     string         `json:"event"`
	Created   bool           `json:"created"`
	Profile   profilePayload `json:"profile"`
	Timestamp string         `json:"timestamp"`
}

type profilePayload struct {
	UserID        string             `json:"userId"`
	FullName      string             `json:"fullName,omitempty"`
	Bio           string             `json:"bio,omitempty"`
	Age           string             `json:"age,omitempty"`
	Gender        string             `json:"gender,omitempty"`
	Location      string             `json:"location,omitempty"`
	Interests     []string           `json:"interests,omitempty"`
	Photos        []models.PhotoView `json:"photos"`
	VoiceIntroURL string             `json:"voiceIntroUrl,omitempty"`
	Version       int64              `json:"version"`
}

// ForwardProfile posts the saved profile to ForwardURL. A blank URL disables
// forwarding. Contact details are not forwarded.
func (ws *WebhookService) ForwardProfile(ctx context.Context, p models.Profile, created bool) error {
	if ws.ForwardURL == "" {
		return nil
	}
	event := profileEvent{
		Event:   "profile.saved",
		Created: created,
		Profile: profilePayload{
			UserID:        p.UserID,
			FullName:      p.FullName,
			Bio:           p.Bio,
			Age:           p.Age,
			Gender:        p.Gender,
			Location:      p.Location,
			Interests:     p.Interests,
			Photos:        p.PhotoViews(),
			VoiceIntroURL: p.VoiceIntroURL,
			Version:       p.Version,
		},
		Timestamp: ws.now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.ForwardURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := ws.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("forward profile %s: %w", p.UserID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("forward profile %s: listener returned %d", p.UserID, resp.StatusCode)
	}
	log.Printf("📤 Forwarded profile %s to webhook listener", p.UserID)
	return nil
}
