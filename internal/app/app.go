package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"tripshare/internal/cache"
	"tripshare/internal/config"
	"tripshare/internal/database"
	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/queue"
	redisclient "tripshare/internal/redis"
	"tripshare/internal/repository"
	"tripshare/internal/repository/memory"
	"tripshare/internal/seed"
	"tripshare/internal/service"
	"tripshare/internal/worker"
)

const redisConnectTimeout = 5 * time.Second

// Repositories groups the store implementations selected by STORE_DRIVER.
type Repositories struct {
	Users         repository.UserRepository
	Experiences   repository.ExperienceRepository
	Comments      repository.CommentRepository
	RefreshTokens repository.RefreshTokenRepository
}

// App holds the infrastructure and services shared by the HTTP server and
// the tripctl commands.
type App struct {
	Config *config.Config
	DB     *sqlx.DB            // nil with the memory store
	Redis  *redisclient.Client // nil without REDIS_URL
	Repos  Repositories

	FeedCache  cache.FeedCache
	StatsCache cache.StatsCache
	Publisher  queue.Publisher

	Verifier    *service.CredentialVerifier
	Tokens      *service.TokenService
	Users       *service.UserService
	Experiences *service.ExperienceService
	Comments    *service.CommentService
	Feed        *service.FeedService
	Media       *service.MediaService // nil without R2 settings

	log zerolog.Logger
}

// New connects the configured store and optional Redis and R2, then wires
// the services. The memory store is seeded with the demo dataset.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, log: logger.For("App")}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		rc, err := redisclient.Connect(ctx, cfg.RedisURL, redisConnectTimeout)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rc
		a.FeedCache = cache.NewFeedCache(rc.Client)
		a.StatsCache = cache.NewStatsCache(rc.Client)
		a.Publisher = queue.NewPublisher(rc.Client)

		// the memory store was just seeded; an ordering left by an earlier process is stale
		if cfg.StoreDriver == config.StoreDriverMemory {
			a.resetFeedCache(ctx)
		}
	} else {
		a.log.Warn().Msg("REDIS_URL not set: feed cache, stream events and login rate limit disabled")
	}

	if cfg.MediaEnabled() {
		media, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Media = media
	} else {
		a.log.Warn().Msg("R2 settings incomplete: image uploads disabled")
	}

	a.Verifier = service.NewCredentialVerifier(a.Repos.Users)
	a.Tokens = service.NewTokenService(a.Repos.RefreshTokens, a.Repos.Users, cfg)
	a.Feed = service.NewFeedService(a.FeedCache, a.StatsCache, a.Repos.Experiences)
	a.Users = service.NewUserService(a.Repos.Users, a.Feed)
	a.Experiences = service.NewExperienceService(a.Repos.Experiences, a.Publisher)
	a.Comments = service.NewCommentService(a.Repos.Comments, a.Repos.Experiences, a.Publisher)

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		a.Repos = Repositories{
			Users:         store.Users(),
			Experiences:   store.Experiences(),
			Comments:      store.Comments(),
			RefreshTokens: store.RefreshTokens(),
		}
		a.log.Info().Msg("Using in-memory store")
		return a.Seed(ctx)

	default:
		db, err := database.Connect(a.Config)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		a.DB = db
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		a.Repos = Repositories{
			Users:         repository.NewUserRepository(db),
			Experiences:   repository.NewExperienceRepository(db),
			Comments:      repository.NewCommentRepository(db),
			RefreshTokens: repository.NewRefreshTokenRepository(db),
		}
		return nil
	}
}

// Seed loads the demo dataset. Existing users are left untouched. Seeded
// rows bypass the event stream, so the feed cache is dropped afterwards.
func (a *App) Seed(ctx context.Context) error {
	d, err := seed.Build(model.PasswordHashCost)
	if err != nil {
		return err
	}
	if err := seed.Load(ctx, d, a.Repos.Users, a.Repos.Experiences, a.Repos.Comments); err != nil {
		return err
	}
	a.resetFeedCache(ctx)
	return nil
}

func (a *App) resetFeedCache(ctx context.Context) {
	if a.FeedCache == nil {
		return
	}
	if err := a.FeedCache.Reset(ctx); err != nil {
		a.log.Warn().Err(err).Msg("feed cache reset FAILED")
		return
	}
	a.log.Info().Msg("feed cache reset OK")
}

// NewWorkerManager returns the stream workers, or nil without Redis.
func (a *App) NewWorkerManager() *worker.Manager {
	if a.Redis == nil {
		return nil
	}
	handler := worker.NewHandler(a.FeedCache, a.StatsCache)
	cfg := worker.DefaultManagerConfig()
	cfg.WorkerCount = a.Config.WorkerCount
	return worker.NewManager(queue.NewConsumer(a.Redis.Client), handler, cfg)
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.log.Warn().Err(err).Msg("database close failed")
		}
	}
}
