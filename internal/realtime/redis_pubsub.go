package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	globalChannel     = "portal:global"
	userChannelPrefix = "portal:user:"
	publishTimeout    = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance delivery.
type redisPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisPubSub bridges hub events across instances via Redis pub/sub.
// It implements both BridgePublisher and BridgeSubscriber.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for notification events.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	return &RedisPubSub{client: client, logger: logger}
}

// PublishGlobal publishes an event on the broadcast channel.
func (r *RedisPubSub) PublishGlobal(event string, payload []byte) error {
	return r.publish(globalChannel, event, payload)
}

// PublishUser publishes an event on a user's private channel.
func (r *RedisPubSub) PublishUser(userID uuid.UUID, event string, payload []byte) error {
	return r.publish(userChannelPrefix+userID.String(), event, payload)
}

func (r *RedisPubSub) publish(channel, event string, payload []byte) error {
	body, err := json.Marshal(redisPayload{Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, channel, body).Err()
}

// SubscribeGlobal subscribes to the broadcast channel.
func (r *RedisPubSub) SubscribeGlobal(handler func(event string, payload []byte)) (func(), error) {
	return r.subscribe(globalChannel, handler)
}

// SubscribeUser subscribes to a user's private channel.
func (r *RedisPubSub) SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	return r.subscribe(userChannelPrefix+userID.String(), handler)
}

func (r *RedisPubSub) subscribe(channel string, handler func(event string, payload []byte)) (func(), error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					continue
				}
				handler(p.Event, p.Data)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
