//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// Air - Live reload for Go apps. With APP_ENV=development the page templates
// are read from frontend/templates, so template edits apply on reload.
//   Install: go install github.com/air-verse/air@v1.63.0
//   Version: v1.63.0 (pinned 2025-01-01)
//   Docs: https://github.com/air-verse/air
//
// mockgen - Regenerates the gomock port mocks in internal/mocks.
//   Run: go generate ./internal/mocks (uses go run, no install needed)
//   Version: v0.6.0, matching go.uber.org/mock in go.mod
