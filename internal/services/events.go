package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
)

// EventPublisher pushes progress events toward the owning user. The
// websocket hub relays the Redis channel to connected clients.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, msg models.WSMessage)
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, userID string, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	p.client.Publish(ctx, "user_updates:"+userID, string(data))
}
