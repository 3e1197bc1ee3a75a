package realtime

import "github.com/google/uuid"

// Publisher is the notification capability injected into workflow services.
// Delivery is fire-and-forget, at-most-once: a disconnected listener simply
// misses the event. Implementations must never return errors to callers.
type Publisher interface {
	// Broadcast delivers to every currently connected listener.
	Broadcast(event string, payload interface{})
	// SendToUser delivers only to listeners on the given user's channel.
	SendToUser(userID uuid.UUID, event string, payload interface{})
}

// NopPublisher discards everything. Used where notifications are not wired
// (worker process, tests that don't inspect them).
type NopPublisher struct{}

func (NopPublisher) Broadcast(string, interface{})             {}
func (NopPublisher) SendToUser(uuid.UUID, string, interface{}) {}
