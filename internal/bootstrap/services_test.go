package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydrops/storefront-edge/config"
	"github.com/mydrops/storefront-edge/internal/testutil"
)

func testConfig(t *testing.T, backendURL string) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{}
	cfg.Backend.BaseURL = backendURL
	cfg.Observability.Metrics.Enabled = true
	cfg.Sanitize()
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServices(t *testing.T) {
	cfg := testConfig(t, "http://backend.invalid:8000")

	svc, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	assert.NotNil(t, svc.Auth)
	assert.NotNil(t, svc.Renderer)
	assert.NotNil(t, svc.Metrics)
	assert.Equal(t, "http://backend.invalid:8000", svc.Backend.BaseURL())
	assert.Empty(t, svc.Readiness, "no redis, no readiness checks")
}

func TestNewServices_Errors(t *testing.T) {
	_, err := NewServices(nil)
	require.Error(t, err)

	cfg := testConfig(t, "http://localhost:8000")
	cfg.Backend.BaseURL = "ftp://nope"
	_, err = NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.Error(t, err)
}

func TestNewServices_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t, "http://localhost:8000")
	cfg.Observability.Metrics.Enabled = false

	svc, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	assert.Nil(t, svc.Metrics)
}

func TestNewServices_RedisLimiterAndReadiness(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	cfg := testConfig(t, "http://localhost:8000")
	cfg.RateLimit.Enabled = true

	svc, err := NewServices(&ServiceDeps{Config: cfg, RedisClient: client, Logger: discardLogger()})
	require.NoError(t, err)

	require.Contains(t, svc.Readiness, "redis")
	assert.NoError(t, svc.Readiness["redis"](context.Background()))
}

func TestServeHTTP_EndToEnd(t *testing.T) {
	stub := testutil.NewStubBackend(testutil.StubAccount{
		ID: 3, Username: "ann", Email: "ann@example.com", Password: "secret1", UserType: "common",
	})
	t.Cleanup(stub.Close)

	cfg := testConfig(t, stub.URL())
	svc, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	server := NewHTTPServer(&HTTPServerConfig{Config: cfg, Services: svc, Logger: discardLogger()})
	require.NotNil(t, server)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeHTTP(ctx, server, ln, discardLogger()) }()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Post(base+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"ann@example.com","password":"secret1"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "storefront_edge_backend_requests_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestShutdownHTTPServer_NilServer(t *testing.T) {
	if err := ShutdownHTTPServer(ShutdownConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewHTTPServer_Defaults(t *testing.T) {
	cfg := testConfig(t, "http://localhost:8000")
	svc, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	server := NewHTTPServer(&HTTPServerConfig{Services: svc})
	require.NotNil(t, server)
	assert.Equal(t, ":8080", server.Addr)
	assert.Equal(t, 30*time.Second, server.WriteTimeout)

	assert.Nil(t, NewHTTPServer(nil))
}
