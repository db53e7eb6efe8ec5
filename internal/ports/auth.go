package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"io"
	"net/http"
	"net/url"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
)

// AuthBackend is the storefront backend's authentication API.
// Tokens are opaque; the backend is the only authority on their validity.
type AuthBackend interface {
	// Login exchanges user credentials for a user session grant.
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error)

	// AdminLogin exchanges credentials for an admin session grant including permissions.
	AdminLogin(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error)

	// Register creates an account. It never logs the user in.
	Register(ctx context.Context, reg domainauth.Registration) error

	// VerifyToken asks the backend whether token is a live session of the given kind
	// and returns the normalized identity and permissions.
	VerifyToken(ctx context.Context, kind domainauth.SessionKind, token string) (domainauth.Verification, error)
}

// ForwardRequest is a same-origin API call relayed to the backend.
type ForwardRequest struct {
	Method string
	// Path is the backend path, e.g. "/api/v1/products/".
	Path  string
	Query url.Values
	Body  io.Reader
	// Token is attached as a bearer credential when non-empty.
	Token string
}

// ForwardResponse is the backend's answer, relayed verbatim.
type ForwardResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Forwarder relays catalog and user-management calls to the backend.
type Forwarder interface {
	Forward(ctx context.Context, req ForwardRequest) (ForwardResponse, error)
}

// LoginLimiter counts login attempts per key within a fixed window.
type LoginLimiter interface {
	// Allow records one attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the attempts recorded for key.
	Reset(ctx context.Context, key string) error
}
