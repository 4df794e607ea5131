package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tripshare/internal/logger"
)

// Publisher adds events to a stream.
type Publisher interface {
	// Publish returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event Event) (messageID string, err error)
}

type RedisPublisher struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client, log: logger.For("Publisher")}
}

// Publish adds the event with XADD and an auto-generated ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		p.log.Error().Err(err).Str("stream", stream).Str("type", event.Type).Msg("Publish FAILED")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.Debug().
		Str("stream", stream).
		Str("type", event.Type).
		Str("msg_id", messageID).
		Str("experience", event.ExperienceID).
		Dur("duration", time.Since(startTime)).
		Msg("Publish OK")
	return messageID, nil
}
