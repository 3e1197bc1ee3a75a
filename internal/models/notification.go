package models

// Notification is the ephemeral envelope pushed to connected listeners.
// It is never persisted; delivery is best-effort.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
