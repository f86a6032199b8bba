package models

// Notification kinds, rendered client-side as toasts.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyWarning = "warning"
	NotifyInfo    = "info"
)

// Notification is a user-facing message pushed over the socket and echoed in responses.
type Notification struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PendingWrite is a profile mutation that failed after its media was stored
// and waits to be replayed.
type PendingWrite struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Kind      string `json:"kind"` // media kind: photo or voice
	URL       string `json:"url"`
	Path      string `json:"path"`
	Attempts  int    `json:"attempts"`
	CreatedAt string `json:"createdAt"`
}
