package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hirehub/interview-engine/internal/models"
)

const busChannelPrefix = "interview:room:"

// busEnvelope wraps a frame with the publishing instance so a node can
// skip frames it already delivered locally.
type busEnvelope struct {
	Origin string               `json:"origin"`
	Frame  *models.SessionFrame `json:"frame"`
}

// Bus replicates session frames across instances over redis pub/sub,
// one channel per room code. With a single instance it is inert but
// harmless.
type Bus struct {
	client   *redis.Client
	hub      *Hub
	instance string
}

func NewBus(client *redis.Client, hub *Hub) *Bus {
	return &Bus{
		client:   client,
		hub:      hub,
		instance: uuid.New().String(),
	}
}

// Publish sends a frame to the room's channel for other instances
func (b *Bus) Publish(ctx context.Context, frame *models.SessionFrame) error {
	data, err := json.Marshal(busEnvelope{Origin: b.instance, Frame: frame})
	if err != nil {
		return fmt.Errorf("failed to marshal bus envelope: %w", err)
	}
	if err := b.client.Publish(ctx, busChannelPrefix+frame.RoomCode, data).Err(); err != nil {
		return fmt.Errorf("failed to publish session frame: %w", err)
	}
	return nil
}

// Run subscribes to all room channels and forwards frames from other
// instances to the local hub until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	pubsub := b.client.PSubscribe(ctx, busChannelPrefix+"*")
	defer pubsub.Close()

	slog.Info("session bus subscribed", "pattern", busChannelPrefix+"*", "instance", b.instance)

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleMessage(msg)
		case <-ctx.Done():
			slog.Info("session bus stopped")
			return
		}
	}
}

func (b *Bus) handleMessage(msg *redis.Message) {
	var env busEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		slog.Error("failed to decode bus envelope", "error", err, "channel", msg.Channel)
		return
	}
	if env.Origin == b.instance || env.Frame == nil {
		return
	}
	if env.Frame.RoomCode == "" {
		env.Frame.RoomCode = strings.TrimPrefix(msg.Channel, busChannelPrefix)
	}
	b.hub.Broadcast(env.Frame)
}
