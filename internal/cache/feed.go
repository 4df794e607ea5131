package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tripshare/internal/logger"
)

const (
	// FeedCacheKey holds experience IDs scored by creation time (unix millis).
	FeedCacheKey = "feed:experiences"

	// FeedCacheCap is the maximum number of experiences kept in the cache.
	FeedCacheCap = 500

	FeedCacheTTL = 7 * 24 * time.Hour
)

// ExperienceScore is an experience ID with its creation timestamp.
type ExperienceScore struct {
	ExperienceID string `db:"id"`
	Timestamp    int64  `db:"ts"` // unix millis
}

// FeedCache keeps the newest-first ordering of the global feed.
type FeedCache interface {
	// AddExperience adds one entry, trims to the cap and refreshes the TTL.
	AddExperience(ctx context.Context, experienceID string, timestamp int64) error

	RemoveExperience(ctx context.Context, experienceID string) error

	// GetIDs returns up to limit experience IDs, newest first.
	GetIDs(ctx context.Context, limit int) ([]string, error)

	// WarmCache bulk-inserts entries. An empty slice is a no-op.
	WarmCache(ctx context.Context, entries []ExperienceScore) error

	Size(ctx context.Context) (int64, error)

	// Exists reports whether the key is present. A missing key means the
	// cache was never warmed or its TTL expired.
	Exists(ctx context.Context) (bool, error)

	// Reset drops the whole ordering; the next read warms it from the store.
	Reset(ctx context.Context) error
}

// RedisFeedCache implements FeedCache using a Redis sorted set.
type RedisFeedCache struct {
	client *redis.Client
	key    string
	log    zerolog.Logger
}

func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client, key: FeedCacheKey, log: logger.For("FeedCache")}
}

// AddExperience pipelines ZADD + ZREMRANGEBYRANK + EXPIRE.
func (c *RedisFeedCache) AddExperience(ctx context.Context, experienceID string, timestamp int64) error {
	startTime := time.Now()

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, c.key, redis.Z{Score: float64(timestamp), Member: experienceID})
	// rank 0 is the oldest; keep the newest FeedCacheCap entries
	pipe.ZRemRangeByRank(ctx, c.key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, c.key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Error().Err(err).Str("experience", experienceID).Msg("AddExperience FAILED")
		return fmt.Errorf("add experience to feed: %w", err)
	}

	c.log.Debug().Str("experience", experienceID).Int64("timestamp", timestamp).
		Dur("duration", time.Since(startTime)).Msg("AddExperience OK")
	return nil
}

func (c *RedisFeedCache) RemoveExperience(ctx context.Context, experienceID string) error {
	removed, err := c.client.ZRem(ctx, c.key, experienceID).Result()
	if err != nil {
		c.log.Error().Err(err).Str("experience", experienceID).Msg("RemoveExperience FAILED")
		return fmt.Errorf("remove experience from feed: %w", err)
	}

	c.log.Debug().Str("experience", experienceID).Int64("removed", removed).Msg("RemoveExperience OK")
	return nil
}

func (c *RedisFeedCache) GetIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = FeedCacheCap
	}
	startTime := time.Now()

	ids, err := c.client.ZRevRange(ctx, c.key, 0, int64(limit-1)).Result()
	if err != nil {
		c.log.Error().Err(err).Msg("GetIDs FAILED")
		return nil, fmt.Errorf("get feed ids: %w", err)
	}

	// refresh TTL on access
	c.client.Expire(ctx, c.key, FeedCacheTTL)

	c.log.Debug().Int("returned", len(ids)).Dur("duration", time.Since(startTime)).Msg("GetIDs OK")
	return ids, nil
}

func (c *RedisFeedCache) WarmCache(ctx context.Context, entries []ExperienceScore) error {
	if len(entries) == 0 {
		c.log.Debug().Msg("WarmCache: nothing to warm")
		return nil
	}
	startTime := time.Now()

	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{Score: float64(e.Timestamp), Member: e.ExperienceID}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, c.key, members...)
	pipe.ZRemRangeByRank(ctx, c.key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, c.key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Error().Err(err).Int("entries", len(entries)).Msg("WarmCache FAILED")
		return fmt.Errorf("warm cache: %w", err)
	}

	c.log.Info().Int("entries", len(entries)).Dur("duration", time.Since(startTime)).Msg("WarmCache OK")
	return nil
}

func (c *RedisFeedCache) Size(ctx context.Context) (int64, error) {
	size, err := c.client.ZCard(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("get cache size: %w", err)
	}
	return size, nil
}

func (c *RedisFeedCache) Exists(ctx context.Context) (bool, error) {
	n, err := c.client.Exists(ctx, c.key).Result()
	if err != nil {
		c.log.Error().Err(err).Msg("Exists FAILED")
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return n > 0, nil
}

func (c *RedisFeedCache) Reset(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.log.Error().Err(err).Msg("Reset FAILED")
		return fmt.Errorf("reset feed cache: %w", err)
	}
	c.log.Info().Msg("Reset OK")
	return nil
}
