package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"shopsense-backend/internal/models"
)

func channelName(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_updates:%s", sessionID)
}

// Publisher pushes session updates into the pub/sub channel the hub fans out
// from. Publishing is best-effort; a session with no listeners drops updates.
type Publisher struct {
	redisClient *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redisClient: redisClient}
}

func (p *Publisher) Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	p.redisClient.Publish(ctx, channelName(sessionID), string(data))
}
