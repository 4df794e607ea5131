package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tripshare/internal/cache"
	"tripshare/internal/logger"
	"tripshare/internal/queue"
)

// Handler applies experience events to the read-side caches.
type Handler struct {
	feedCache  cache.FeedCache
	statsCache cache.StatsCache
	log        zerolog.Logger
}

func NewHandler(feedCache cache.FeedCache, statsCache cache.StatsCache) *Handler {
	return &Handler{
		feedCache:  feedCache,
		statsCache: statsCache,
		log:        logger.For("Worker"),
	}
}

// HandleEvent routes an event by type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventExperienceCreated:
		err = h.handleExperienceCreated(ctx, event)
	case queue.EventExperienceDeleted:
		err = h.handleExperienceDeleted(ctx, event)
	case queue.EventCommentAdded:
		err = h.handleCommentAdded(ctx, event)
	default:
		h.log.Warn().Str("type", event.Type).Msg("Unknown event type")
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Dur("duration", time.Since(startTime)).Msg("HandleEvent FAILED")
		return err
	}

	h.log.Debug().Str("type", event.Type).Dur("duration", time.Since(startTime)).Msg("HandleEvent OK")
	return nil
}

// handleExperienceCreated only extends a warmed feed. Adding to a missing
// key would create a one-entry ordering that hides the rest of the store.
func (h *Handler) handleExperienceCreated(ctx context.Context, event queue.Event) error {
	h.invalidateStats(ctx, event.CreatorID)

	warmed, err := h.feedCache.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check feed cache: %w", err)
	}
	if !warmed {
		h.log.Debug().Str("experience", event.ExperienceID).Msg("feed cache cold, skipping add")
		return nil
	}

	score := event.CreatedAt
	if score == 0 {
		score = event.Timestamp * 1000
	}
	if err := h.feedCache.AddExperience(ctx, event.ExperienceID, score); err != nil {
		return fmt.Errorf("add to feed cache: %w", err)
	}
	return nil
}

func (h *Handler) handleExperienceDeleted(ctx context.Context, event queue.Event) error {
	if err := h.feedCache.RemoveExperience(ctx, event.ExperienceID); err != nil {
		return fmt.Errorf("remove from feed cache: %w", err)
	}
	h.invalidateStats(ctx, event.CreatorID)
	return nil
}

// handleCommentAdded only affects the creator's comment total.
func (h *Handler) handleCommentAdded(ctx context.Context, event queue.Event) error {
	h.invalidateStats(ctx, event.CreatorID)
	return nil
}

// invalidateStats is best effort; a stale entry expires with its TTL anyway.
func (h *Handler) invalidateStats(ctx context.Context, userID string) {
	if h.statsCache == nil || userID == "" {
		return
	}
	if err := h.statsCache.Invalidate(ctx, userID); err != nil {
		h.log.Warn().Err(err).Str("user", userID).Msg("stats invalidation failed")
	}
}
