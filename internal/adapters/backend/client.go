// Package backend talks to the storefront REST backend.
//
// All calls carry an explicit timeout and are never retried. Session tokens are
// attached through an oauth2 transport so they never pass through request
// construction code or logs.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/mydrops/storefront-edge/internal/errors"
	"github.com/mydrops/storefront-edge/internal/observability/metrics"
)

// Backend API paths.
const (
	PathLogin       = "/api/v1/auth/login"
	PathRegister    = "/api/v1/auth/register"
	PathAdminLogin  = "/api/v1/auth/admin/login"
	PathAdminVerify = "/api/v1/auth/admin/verify-token"
	PathUserVerify  = "/api/v1/auth/verify-token"
)

const (
	defaultTimeout = 10 * time.Second
	// maxResponseBytes caps how much of a backend body is read.
	maxResponseBytes = 4 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	UserVerifyPath string
	// HTTPClient supplies the base transport. Its Timeout is overridden.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
}

// Client is the storefront backend adapter. It is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	timeout        time.Duration
	userVerifyPath string
	transport      http.RoundTripper
	logger         *slog.Logger
	metrics        *metrics.Recorder
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("backend base URL must be absolute http(s), got %q", raw)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		transport = opts.HTTPClient.Transport
	}

	verifyPath := opts.UserVerifyPath
	if verifyPath == "" {
		verifyPath = PathUserVerify
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        base,
		timeout:        timeout,
		userVerifyPath: verifyPath,
		transport:      transport,
		logger:         logger.With("component", "backend"),
		metrics:        opts.Metrics,
	}, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// httpClient returns a client that attaches token as a bearer credential when set.
func (c *Client) httpClient(token string) *http.Client {
	rt := c.transport
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		}
	}
	return &http.Client{
		Transport: rt,
		Timeout:   c.timeout,
		// Redirects from the backend are surfaced, not followed, so a bearer
		// token is never replayed to another origin.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   io.Reader
	header http.Header
}

type result struct {
	status int
	header http.Header
	body   []byte
}

// do performs one request and returns the status and (size-limited) body.
// Transport failures and timeouts come back as network errors.
func (c *Client) do(ctx context.Context, in call) (res result, err error) {
	start := time.Now()
	defer func() { c.metrics.BackendCall(in.op, time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, in.method, c.endpoint(in.path, in.query), in.body)
	if err != nil {
		return result{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build backend request")
	}
	for k, vs := range in.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient(in.token).Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			"op", in.op, "method", in.method, "path", in.path, "error", err)
		return result{}, apperrors.Network(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return result{}, apperrors.Network(fmt.Errorf("read backend response: %w", err))
	}
	if len(body) > maxResponseBytes {
		c.logger.WarnContext(ctx, "backend response too large",
			"op", in.op, "method", in.method, "path", in.path, "limit_bytes", maxResponseBytes)
		return result{}, apperrors.MalformedResponse(fmt.Errorf("backend response exceeds %d bytes", maxResponseBytes))
	}

	c.logger.DebugContext(ctx, "backend response",
		"op", in.op, "method", in.method, "path", in.path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(), "authenticated", in.token != "")

	return result{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// postJSON sends payload as JSON and decodes a 2xx body into a generic document.
// Non-2xx answers come back as upstream errors carrying the backend's message.
func (c *Client) postJSON(ctx context.Context, op, path, token string, payload any, fallback string) (any, error) {
	var body io.Reader
	var header http.Header
	if payload != nil {
		var err error
		if body, header, err = jsonRequest(payload); err != nil {
			return nil, err
		}
	}

	res, err := c.do(ctx, call{op: op, method: http.MethodPost, path: path, token: token, body: body, header: header})
	if err != nil {
		return nil, err
	}

	if res.status < 200 || res.status > 299 {
		return nil, apperrors.Upstream(res.status, ErrorMessage(res.body, fallback))
	}

	doc, err := decodeDocument(res.body)
	if err != nil {
		return nil, apperrors.MalformedResponse(err)
	}
	return doc, nil
}

func decodeDocument(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty body")
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// jsonRequest encodes v as a JSON request body.
func jsonRequest(v any) (io.Reader, http.Header, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode backend request")
	}
	return bytes.NewReader(buf), http.Header{"Content-Type": []string{"application/json"}}, nil
}
