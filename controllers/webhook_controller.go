package controllers

import (
	"context"
	"io"
	"log"
	"net/http"

	"luvlang_server/models"
	"luvlang_server/utils"
)

type WebhookRecorder interface {
	Record(ctx context.Context, route string, payload []byte, remoteAddr string) (*models.WebhookAudit, error)
}

// WebhookController acknowledges inbound webhooks after auditing them.
type WebhookController struct {
	Recorder WebhookRecorder
}

// Relay logs and audits the payload and answers with a fixed acknowledgement.
// An audit failure is logged but still acknowledged.
func (wc *WebhookController) Relay(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "could not read payload")
		return
	}
	route := r.URL.Path
	log.Printf("📬 Webhook on %s (%d bytes): %s", route, len(payload), payload)

	ack := map[string]string{"status": "received", "route": route}
	if audit, err := wc.Recorder.Record(r.Context(), route, payload, r.RemoteAddr); err == nil {
		ack["auditId"] = audit.AuditID
	}
	utils.WriteJSONResponse(w, http.StatusOK, ack)
}
