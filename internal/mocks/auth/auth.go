package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	apperrors "github.com/mydrops/storefront-edge/internal/errors"
	"github.com/mydrops/storefront-edge/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend  = (*FakeBackend)(nil)
	_ ports.Forwarder    = (*FakeForwarder)(nil)
	_ ports.LoginLimiter = (*CountingLimiter)(nil)
)

// FakeBackend is an in-memory AuthBackend. Func fields override the default
// behavior; without them it accepts DefaultUser/DefaultPassword and issues
// deterministic tokens that VerifyToken recognizes.
type FakeBackend struct {
	LoginFunc       func(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error)
	AdminLoginFunc  func(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error)
	RegisterFunc    func(ctx context.Context, reg domainauth.Registration) error
	VerifyTokenFunc func(ctx context.Context, kind domainauth.SessionKind, token string) (domainauth.Verification, error)

	DefaultUser        domainauth.Identity
	DefaultPassword    string
	DefaultPermissions domainauth.PermissionSet

	mu     sync.Mutex
	calls  map[string]int
	tokens map[string]domainauth.SessionKind
}

// NewFakeBackend creates a FakeBackend with sensible defaults.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		DefaultUser: domainauth.Identity{
			ID:       1,
			Username: "mock-admin",
			Email:    "mock.admin@example.com",
			UserType: domainauth.UserTypeAdmin,
			IsActive: true,
		},
		DefaultPassword:    "password123",
		DefaultPermissions: domainauth.NewPermissionSet(domainauth.PermManageBooks),
	}
}

func (f *FakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (f *FakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of backend calls of any kind.
func (f *FakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeBackend) issue(kind domainauth.SessionKind, creds domainauth.Credentials) (domainauth.Grant, error) {
	if creds.Email != f.DefaultUser.Email || creds.Password != f.DefaultPassword {
		return domainauth.Grant{}, apperrors.Upstream(401, "Invalid credentials")
	}
	token := fmt.Sprintf("%s-token-%d", kind, f.DefaultUser.ID)

	f.mu.Lock()
	if f.tokens == nil {
		f.tokens = make(map[string]domainauth.SessionKind)
	}
	f.tokens[token] = kind
	f.mu.Unlock()

	grant := domainauth.Grant{Token: token, User: f.DefaultUser, HasUser: true, Permissions: domainauth.NewPermissionSet()}
	if kind == domainauth.SessionAdmin {
		grant.Permissions = f.DefaultPermissions
	}
	return grant, nil
}

func (f *FakeBackend) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error) {
	f.record("Login")
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, creds)
	}
	return f.issue(domainauth.SessionUser, creds)
}

func (f *FakeBackend) AdminLogin(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error) {
	f.record("AdminLogin")
	if f.AdminLoginFunc != nil {
		return f.AdminLoginFunc(ctx, creds)
	}
	return f.issue(domainauth.SessionAdmin, creds)
}

func (f *FakeBackend) Register(ctx context.Context, reg domainauth.Registration) error {
	f.record("Register")
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, reg)
	}
	return nil
}

func (f *FakeBackend) VerifyToken(
	ctx context.Context,
	kind domainauth.SessionKind,
	token string,
) (domainauth.Verification, error) {
	f.record("VerifyToken")
	if f.VerifyTokenFunc != nil {
		return f.VerifyTokenFunc(ctx, kind, token)
	}

	f.mu.Lock()
	issued, ok := f.tokens[token]
	f.mu.Unlock()
	if !ok || issued != kind {
		return domainauth.Verification{}, apperrors.InvalidToken("Invalid token")
	}

	v := domainauth.Verification{Valid: true, User: f.DefaultUser, Permissions: domainauth.NewPermissionSet()}
	if kind == domainauth.SessionAdmin {
		v.Permissions = f.DefaultPermissions
	}
	return v, nil
}

// FakeForwarder records forwarded requests and answers with Response.
type FakeForwarder struct {
	ForwardFunc func(ctx context.Context, req ports.ForwardRequest) (ports.ForwardResponse, error)
	Response    ports.ForwardResponse

	mu       sync.Mutex
	requests []ports.ForwardRequest
}

func (f *FakeForwarder) Forward(ctx context.Context, req ports.ForwardRequest) (ports.ForwardResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.ForwardFunc != nil {
		return f.ForwardFunc(ctx, req)
	}
	res := f.Response
	if res.Status == 0 {
		res.Status = 200
	}
	return res, nil
}

// Requests returns every request forwarded so far.
func (f *FakeForwarder) Requests() []ports.ForwardRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.ForwardRequest(nil), f.requests...)
}

// CountingLimiter is an in-memory LoginLimiter without windows.
type CountingLimiter struct {
	Limit int
	Err   error

	mu     sync.Mutex
	counts map[string]int
}

func (l *CountingLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.Err != nil {
		return false, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= l.Limit, nil
}

func (l *CountingLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
	return nil
}

// Count returns the attempts recorded for key.
func (l *CountingLimiter) Count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[key]
}
