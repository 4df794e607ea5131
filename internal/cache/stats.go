package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tripshare/internal/logger"
	"tripshare/internal/model"
)

const (
	StatsCachePrefix = "stats:user:"
	StatsCacheTTL    = 10 * time.Minute
)

// StatsCache stores computed profile statistics per user.
type StatsCache interface {
	// Get returns (stats, found, error).
	Get(ctx context.Context, userID string) (*model.ProfileStats, bool, error)
	Set(ctx context.Context, userID string, stats model.ProfileStats) error
	Invalidate(ctx context.Context, userID string) error
}

type RedisStatsCache struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewStatsCache(client *redis.Client) StatsCache {
	return &RedisStatsCache{client: client, log: logger.For("StatsCache")}
}

func statsKey(userID string) string {
	return StatsCachePrefix + userID
}

func (c *RedisStatsCache) Get(ctx context.Context, userID string) (*model.ProfileStats, bool, error) {
	raw, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get stats: %w", err)
	}

	var stats model.ProfileStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// corrupt entry; treat as a miss so it gets recomputed
		c.log.Warn().Err(err).Str("user", userID).Msg("Get: dropping undecodable entry")
		return nil, false, nil
	}
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, userID string, stats model.ProfileStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(userID), raw, StatsCacheTTL).Err(); err != nil {
		return fmt.Errorf("set stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, statsKey(userID)).Err(); err != nil {
		c.log.Error().Err(err).Str("user", userID).Msg("Invalidate FAILED")
		return fmt.Errorf("invalidate stats: %w", err)
	}
	c.log.Debug().Str("user", userID).Msg("Invalidate OK")
	return nil
}
