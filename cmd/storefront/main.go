package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mydrops/storefront-edge/config"
	"github.com/mydrops/storefront-edge/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) (err error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.SetLogLevel(cfg.LogLevel)
	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := bootstrap.ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close redis: %w", cerr))
			}
		}()
	}

	return serve(ctx, &cfg, redisClient, logger)
}

func serve(ctx context.Context, cfg *config.AppConfig, redisClient redis.UniversalClient, logger *slog.Logger) error {
	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	server := bootstrap.NewHTTPServer(&bootstrap.HTTPServerConfig{
		Config:   cfg,
		Services: services,
		Logger:   logger,
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return bootstrap.ServeHTTP(gctx, server, nil, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		if sigCtx.Err() != nil && ctx.Err() == nil {
			logger.InfoContext(ctx, "shutdown signal received")
		}
		return nil
	})

	return g.Wait()
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting storefront edge",
		"env", cfg.Env,
		"addr", cfg.HTTP.Addr,
		"backend", cfg.Backend.BaseURL,
		"backend_timeout", cfg.Backend.Timeout.String(),
		"redis", cfg.Redis.Enabled(),
		"rate_limit", cfg.RateLimit.Enabled,
		"metrics", cfg.Observability.Metrics.IsEnabled())
}
