package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
)

// EventPublisher fans committed events out over Redis pub/sub, one channel
// per game: {prefix}:{gameID}.
type EventPublisher struct {
	client *redis.Client
	prefix string
}

func NewEventPublisher(client *redis.Client, prefix string) *EventPublisher {
	if prefix == "" {
		prefix = "trivia:events"
	}
	return &EventPublisher{client: client, prefix: prefix}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(event.GameID), raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Channel names the pub/sub channel carrying a game's events.
func (p *EventPublisher) Channel(gameID string) string {
	return p.prefix + ":" + gameID
}
