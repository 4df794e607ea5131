package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tripshare/internal/cache"
	"tripshare/internal/feed"
	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/repository"
)

// CacheWarmLimit is the largest feed the cache serves on its own. Bigger
// feeds are searched from the store so no older experience drops out.
const CacheWarmLimit = cache.FeedCacheCap

// FeedService serves the discovery feed and profile statistics.
type FeedService struct {
	feedCache      cache.FeedCache
	statsCache     cache.StatsCache
	experienceRepo repository.ExperienceRepository
	log            zerolog.Logger
}

// NewFeedService accepts nil caches; the store is then the only source.
func NewFeedService(feedCache cache.FeedCache, statsCache cache.StatsCache, experienceRepo repository.ExperienceRepository) *FeedService {
	return &FeedService{
		feedCache:      feedCache,
		statsCache:     statsCache,
		experienceRepo: experienceRepo,
		log:            logger.For("FeedService"),
	}
}

// Search returns the experiences matching q, newest first. Every experience
// in the store is a candidate whichever source supplies the ordering.
//
// Flow:
// 1. Ordered IDs from the feed cache when it holds the whole feed,
//    otherwise the store's own ordering
// 2. Hydrate the experiences in that order
// 3. Filter with feed.Query, then by distance when Near is set
func (s *FeedService) Search(ctx context.Context, q model.FeedQuery) (*model.FeedResponse, error) {
	startTime := time.Now()

	experiences, source, err := s.candidates(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Search FAILED")
		return nil, err
	}

	filter := q.Type
	if filter == "" {
		filter = model.CategoryAll
	}
	results := feed.Query(experiences, q.Term, filter)
	if q.Near != nil && q.RadiusKm > 0 {
		results = feed.Nearby(results, *q.Near, q.RadiusKm)
	}

	s.log.Debug().
		Str("term", q.Term).
		Str("type", string(filter)).
		Str("source", source).
		Int("candidates", len(experiences)).
		Int("results", len(results)).
		Dur("duration", time.Since(startTime)).
		Msg("Search OK")

	return &model.FeedResponse{Experiences: results, Count: len(results)}, nil
}

func (s *FeedService) candidates(ctx context.Context) ([]model.Experience, string, error) {
	if s.feedCache != nil {
		exps, ok, err := s.fromCache(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("feed cache unavailable, falling back to store")
		case ok:
			return exps, "cache", nil
		}
	}

	exps, err := s.experienceRepo.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list experiences: %w", err)
	}
	return exps, "store", nil
}

// fromCache serves the feed from the cache when the cached ordering covers
// exactly the stored experiences. A cold or drifted cache is rebuilt from the
// store first. ok is false when the feed is larger than the cache can hold.
func (s *FeedService) fromCache(ctx context.Context) ([]model.Experience, bool, error) {
	total, err := s.experienceRepo.Count(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("count experiences: %w", err)
	}
	if total > CacheWarmLimit {
		return nil, false, nil
	}

	ids, err := s.cachedIDs(ctx, total)
	if err != nil {
		return nil, false, err
	}

	exps, err := s.experienceRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("hydrate feed: %w", err)
	}
	return exps, true, nil
}

func (s *FeedService) cachedIDs(ctx context.Context, total int) ([]string, error) {
	exists, err := s.feedCache.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		ids, err := s.feedCache.GetIDs(ctx, CacheWarmLimit)
		if err != nil {
			return nil, err
		}
		if len(ids) == total {
			return ids, nil
		}
		s.log.Info().Int("cached", len(ids)).Int("stored", total).Msg("feed cache drifted, rebuilding")
		if err := s.feedCache.Reset(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.warmCache(ctx); err != nil {
		return nil, err
	}
	return s.feedCache.GetIDs(ctx, CacheWarmLimit)
}

func (s *FeedService) warmCache(ctx context.Context) error {
	startTime := time.Now()

	entries, err := s.experienceRepo.ListRecentIDs(ctx, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("load recent experiences: %w", err)
	}
	if err := s.feedCache.WarmCache(ctx, entries); err != nil {
		return err
	}

	s.log.Info().Int("entries", len(entries)).Dur("duration", time.Since(startTime)).Msg("warmCache OK")
	return nil
}

// ByCreator lists a user's experiences, newest first.
func (s *FeedService) ByCreator(ctx context.Context, creatorID string) ([]model.Experience, error) {
	return s.experienceRepo.ListByCreator(ctx, creatorID)
}

// Stats aggregates the user's experiences. Results are cached when a stats
// cache is configured; cache errors only cost a recomputation.
func (s *FeedService) Stats(ctx context.Context, userID string) (model.ProfileStats, error) {
	if s.statsCache != nil {
		stats, found, err := s.statsCache.Get(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("stats cache read FAILED")
		} else if found {
			return *stats, nil
		}
	}

	exps, err := s.experienceRepo.ListByCreator(ctx, userID)
	if err != nil {
		return model.ProfileStats{}, fmt.Errorf("list user experiences: %w", err)
	}
	stats := feed.Stats(exps)

	if s.statsCache != nil {
		if err := s.statsCache.Set(ctx, userID, stats); err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("stats cache write FAILED")
		}
	}
	return stats, nil
}
