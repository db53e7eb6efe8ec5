package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	storefront "github.com/mydrops/storefront-edge"
	"github.com/mydrops/storefront-edge/config"
	"github.com/mydrops/storefront-edge/internal/adapters/backend"
	redisadapter "github.com/mydrops/storefront-edge/internal/adapters/redis"
	httpx "github.com/mydrops/storefront-edge/internal/http"
	"github.com/mydrops/storefront-edge/internal/observability/metrics"
	"github.com/mydrops/storefront-edge/internal/ports"
	"github.com/mydrops/storefront-edge/internal/service"
)

// devTemplatesDir is read from disk in development so template edits apply
// on restart without a rebuild.
const devTemplatesDir = "frontend/templates"

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Backend  *backend.Client
	Auth     *service.AuthService
	Cookies  *httpx.SessionCookies
	Renderer *httpx.TemplateRenderer
	// Metrics is nil when OBSERVABILITY_METRICS_ENABLED is false.
	Metrics   *metrics.Recorder
	Readiness map[string]httpx.ReadinessCheck
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	// RedisClient is optional; without it logins are not rate limited.
	RedisClient redis.UniversalClient
	// TemplateFS overrides the page templates. Defaults to the embedded set.
	TemplateFS fs.FS
	Logger     *slog.Logger
}

// NewServices builds the backend client, auth service and page renderer.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rec *metrics.Recorder
	if cfg.Observability.Metrics.IsEnabled() {
		rec = metrics.New()
	}

	client, err := backend.NewClient(backend.Options{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		UserVerifyPath: cfg.Backend.UserVerifyPath,
		Logger:         logger,
		Metrics:        rec,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	if cfg.Session.AdminPathScoped() {
		logger.Warn("admin cookies are path scoped; the guard cannot see the admin session outside that path",
			"path", cfg.Session.AdminCookiePath)
	}

	limiter, err := newLoginLimiter(cfg, deps.RedisClient, logger)
	if err != nil {
		return nil, err
	}

	templates := deps.TemplateFS
	if templates == nil {
		templates, err = templateFS(cfg.IsDev, logger)
		if err != nil {
			return nil, err
		}
	}
	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{TemplateFS: templates, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	return &ServiceContainer{
		Backend: client,
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Backend: client,
			Limiter: limiter,
			Logger:  logger,
			Metrics: rec,
		}),
		Cookies: httpx.NewSessionCookies(httpx.CookieOptions{
			Domain:      cfg.HTTP.CookieDomain,
			AdminPath:   cfg.Session.AdminCookiePath,
			UserMaxAge:  cfg.Session.UserMaxAge,
			AdminMaxAge: cfg.Session.AdminMaxAge,
			Secure:      cfg.IsProduction(),
		}),
		Renderer:  renderer,
		Metrics:   rec,
		Readiness: readinessChecks(deps.RedisClient),
	}, nil
}

// newLoginLimiter returns nil when rate limiting is disabled or Redis is absent.
//
//nolint:ireturn // a nil port disables limiting in the auth service.
func newLoginLimiter(
	cfg *config.AppConfig,
	client redis.UniversalClient,
	logger *slog.Logger,
) (ports.LoginLimiter, error) {
	if !cfg.RateLimit.Enabled || client == nil {
		logger.Info("login rate limiting disabled")
		return nil, nil
	}
	limiter, err := redisadapter.NewLoginLimiter(client, redisadapter.LoginLimiterOptions{
		Limit:  cfg.RateLimit.LoginAttempts,
		Window: cfg.RateLimit.LoginWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("create login limiter: %w", err)
	}
	logger.Info("login rate limiting enabled",
		"attempts", cfg.RateLimit.LoginAttempts, "window", cfg.RateLimit.LoginWindow.String())
	return limiter, nil
}

//nolint:ireturn // embed.FS and os.DirFS are both fs.FS.
func templateFS(isDev bool, logger *slog.Logger) (fs.FS, error) {
	if isDev {
		if info, err := os.Stat(devTemplatesDir); err == nil && info.IsDir() {
			logger.Info("loading templates from disk", "dir", devTemplatesDir)
			return os.DirFS(devTemplatesDir), nil
		}
	}
	sub, err := fs.Sub(storefront.TemplateFS, devTemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded templates: %w", err)
	}
	return sub, nil
}

func readinessChecks(client redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := map[string]httpx.ReadinessCheck{}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
