package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mydrops/storefront-edge/config"
	httpx "github.com/mydrops/storefront-edge/internal/http"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// BuildHandler wires the router from the service container.
func BuildHandler(cfg *HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Auth:            cfg.Services.Auth,
		Forwarder:       cfg.Services.Backend,
		Cookies:         cfg.Services.Cookies,
		Renderer:        cfg.Services.Renderer,
		Metrics:         cfg.Services.Metrics,
		MetricsPath:     appCfg.Observability.Metrics.Path,
		ReadinessChecks: cfg.Services.Readiness,
		Logger:          logger,
	}
	return httpx.NewRouter(services)
}

// NewHTTPServer creates the HTTP server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil || cfg.Services == nil {
		return nil
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
		appCfg.HTTP.Sanitize()
	}

	// Guard against empty addr to avoid listening on Go default
	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           BuildHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       appCfg.HTTP.ReadTimeout,
		WriteTimeout:      appCfg.HTTP.WriteTimeout,
		IdleTimeout:       appCfg.HTTP.IdleTimeout,
	}
}

// ServeHTTP runs server on ln until ctx is cancelled, then shuts it down
// gracefully. A nil ln listens on server.Addr.
func ServeHTTP(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	if server == nil {
		return errors.New("http server is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		var err error
		if ln != nil {
			err = server.Serve(ln)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	if err := ShutdownHTTPServer(ShutdownConfig{Server: server, Logger: logger}); err != nil {
		return err
	}
	return <-errCh
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Server *http.Server
	Logger *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	// Detached from the caller's context, which is usually already cancelled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
