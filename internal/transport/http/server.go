package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tripshare/internal/app"
	"tripshare/internal/config"
	"tripshare/internal/handler"
	"tripshare/internal/logger"
	authmw "tripshare/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// NewRouterFromApp builds every handler on top of the wired services.
func NewRouterFromApp(a *app.App) stdhttp.Handler {
	return NewRouter(routerConfigFromApp(a))
}

func routerConfigFromApp(a *app.App) RouterConfig {
	cfg := RouterConfig{
		AuthHandler:       handler.NewAuthHandler(a.Users, a.Verifier, a.Tokens),
		UserHandler:       handler.NewUserHandler(a.Users, a.Feed, a.Media),
		FeedHandler:       handler.NewFeedHandler(a.Feed),
		ExperienceHandler: handler.NewExperienceHandler(a.Experiences),
		CommentHandler:    handler.NewCommentHandler(a.Comments),
		MediaHandler:      handler.NewMediaHandler(a.Media),
		JWTSecret:         a.Config.JWTSecret,
		LoginRateLimit:    a.Config.LoginRateLimit,
	}
	if a.Redis != nil {
		window := time.Duration(a.Config.LoginRateWindowSeconds) * time.Second
		cfg.LoginLimiter = authmw.NewRedisLimiter(a.Redis.Client, window)
	}
	return cfg
}

// Run loads configuration, serves HTTP and runs the stream workers until
// SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init("tripshare-api", cfg.AppEnv, cfg.LogLevel)
	log := logger.For("Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewRouterFromApp(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if manager := a.NewWorkerManager(); manager != nil {
		if err := manager.Start(gctx); err != nil {
			return fmt.Errorf("start workers: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			manager.Stop()
			return nil
		})
	}

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
