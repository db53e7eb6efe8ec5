// Package mocks provides gomock implementations of the storefront edge ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockAuthBackend(ctrl)
//	backend.EXPECT().VerifyToken(gomock.Any(), auth.SessionAdmin, "tok").Return(v, nil)
package mocks

// Generate mock for AuthBackend interface from internal/ports package.
// This creates MockAuthBackend with methods for all AuthBackend interface methods:
// Login, AdminLogin, Register, VerifyToken
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_backend_mock.go github.com/mydrops/storefront-edge/internal/ports AuthBackend

// Generate mock for Forwarder interface from internal/ports package.
// This creates MockForwarder with methods for all Forwarder interface methods:
// Forward
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=forwarder_mock.go github.com/mydrops/storefront-edge/internal/ports Forwarder
