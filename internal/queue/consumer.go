package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tripshare/internal/logger"
)

// Message is a parsed stream entry.
type Message struct {
	ID    string // Redis message ID, e.g. "1702000000000-0"
	Event Event
}

// Consumer reads events from a stream through a consumer group.
type Consumer interface {
	// EnsureGroup creates the group (and stream) if missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns new messages for this consumer, blocking up to block.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to this consumer but never acked.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	Ack(ctx context.Context, stream, group string, messageIDs ...string) error

	Pending(ctx context.Context, stream, group string) (int64, error)
}

type RedisConsumer struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewConsumer(client *redis.Client) *RedisConsumer {
	return &RedisConsumer{client: client, log: logger.For("Consumer")}
}

// EnsureGroup runs XGROUP CREATE ... MKSTREAM starting from "0" so a fresh
// group sees every message already in the stream.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			c.log.Debug().Str("stream", stream).Str("group", group).Msg("EnsureGroup: already exists")
			return nil
		}
		c.log.Error().Err(err).Str("stream", stream).Str("group", group).Msg("EnsureGroup FAILED")
		return fmt.Errorf("create consumer group: %w", err)
	}

	c.log.Info().Str("stream", stream).Str("group", group).Msg("EnsureGroup OK (created)")
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.readGroup(ctx, stream, group, consumer, ">", count, block)
}

func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	// "0" re-reads this consumer's pending entries list
	return c.readGroup(ctx, stream, group, consumer, "0", count, -1)
}

func (c *RedisConsumer) readGroup(ctx context.Context, stream, group, consumer, id string, count int64, block time.Duration) ([]Message, error) {
	startTime := time.Now()

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, id},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.log.Error().Err(err).Str("stream", stream).Str("consumer", consumer).Str("id", id).Msg("Read FAILED")
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := ParseEvent(msg.Values)
			if err != nil {
				// malformed entries are acked so they are not redelivered forever
				c.log.Warn().Err(err).Str("msg_id", msg.ID).Msg("Read: skipping malformed message")
				_ = c.Ack(ctx, stream, group, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}

	c.log.Debug().
		Str("stream", stream).
		Str("consumer", consumer).
		Str("id", id).
		Int("count", len(messages)).
		Dur("duration", time.Since(startTime)).
		Msg("Read OK")
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		c.log.Error().Err(err).Strs("ids", messageIDs).Msg("Ack FAILED")
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	info, err := c.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending: %w", err)
	}
	return info.Count, nil
}
