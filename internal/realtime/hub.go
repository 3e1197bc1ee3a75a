package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains the set of connected clients, grouped by user, and fans
// notifications out either globally or to a single user's channel.
// Uses Redis pub/sub for horizontal scaling: events are published to Redis
// and each instance (this one included) delivers to its local clients when
// the subscription echoes the event back, so no client sees duplicates.
type Hub struct {
	users    map[uuid.UUID]map[string]*Client // userID -> clientID -> client
	userSubs map[uuid.UUID]func()             // cancel per-user Redis subscription
	mu       sync.RWMutex
	logger   *zap.Logger
	pub      BridgePublisher
	sub      BridgeSubscriber
}

// BridgePublisher publishes events to Redis for cross-instance delivery.
type BridgePublisher interface {
	PublishGlobal(event string, payload []byte) error
	PublishUser(userID uuid.UUID, event string, payload []byte) error
}

// BridgeSubscriber subscribes to Redis channels and invokes the handler for
// incoming events. Returns a cancel func to stop the subscription.
type BridgeSubscriber interface {
	SubscribeGlobal(handler func(event string, payload []byte)) (cancel func(), err error)
	SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a hub. Pass nil bridges for a single-instance deployment;
// delivery then stays in-process.
func NewHub(logger *zap.Logger, pub BridgePublisher, sub BridgeSubscriber) *Hub {
	return &Hub{
		users:    make(map[uuid.UUID]map[string]*Client),
		userSubs: make(map[uuid.UUID]func()),
		logger:   logger,
		pub:      pub,
		sub:      sub,
	}
}

// Start subscribes to the global Redis channel. Call once at startup.
func (h *Hub) Start() {
	if h.sub == nil {
		return
	}
	if _, err := h.sub.SubscribeGlobal(func(event string, payload []byte) {
		h.deliverAll(event, json.RawMessage(payload))
	}); err != nil {
		h.logger.Warn("global subscription failed, falling back to local delivery", zap.Error(err))
		h.sub = nil
	}
}

// Register adds a client. Starts the user's Redis subscription if this is
// the user's first connection on this instance.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
		if h.sub != nil {
			userID := c.UserID
			cancel, err := h.sub.SubscribeUser(userID, func(event string, payload []byte) {
				h.deliverUser(userID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.userSubs[userID] = cancel
			}
		}
	}
	h.users[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a client. Cancels the user's Redis subscription when
// their last connection on this instance closes.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
			if cancel, ok := h.userSubs[c.UserID]; ok {
				cancel()
				delete(h.userSubs, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Broadcast implements Publisher. With a Redis bridge the event is published
// once and delivered when the subscription echoes it; without one it is
// delivered to local clients directly.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("broadcast payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.pub != nil && h.sub != nil {
		if err := h.pub.PublishGlobal(event, data); err != nil {
			h.logger.Warn("broadcast publish failed", zap.String("event", event), zap.Error(err))
		}
		return
	}
	h.deliverAll(event, json.RawMessage(data))
}

// SendToUser implements Publisher for targeted notifications.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("user payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.pub != nil && h.sub != nil {
		if err := h.pub.PublishUser(userID, event, data); err != nil {
			h.logger.Warn("user publish failed", zap.String("event", event), zap.Error(err))
		}
		return
	}
	h.deliverUser(userID, event, json.RawMessage(data))
}

// ConnectionCount returns the number of connected clients on this instance.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.users {
		n += len(m)
	}
	return n
}

func (h *Hub) deliverAll(event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.users {
		for _, c := range clients {
			select {
			case c.send <- msg:
			default:
				// buffer full, skip
			}
		}
	}
}

func (h *Hub) deliverUser(userID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.users[userID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}
