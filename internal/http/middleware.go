package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/mydrops/storefront-edge/internal/domain/guard"
	"github.com/mydrops/storefront-edge/internal/observability/metrics"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 128

// Logging returns a middleware that logs HTTP requests and records request metrics.
// Cookie values are never logged.
func Logging(logger *slog.Logger, rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			// r.Pattern is populated by the ServeMux once it has routed r.
			rec.HTTPRequest(r.Method, r.Pattern, ww.status, elapsed)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", elapsed),
			}
			if id, ok := RequestIDFromContext(r.Context()); ok {
				attrs = append(attrs, slog.String("request_id", id))
			}
			logger.InfoContext(r.Context(), "http", attrs...)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteError(w, ErrorParams{
						Code:    http.StatusInternalServerError,
						ErrCode: "internal",
						Message: msgInternal,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID returns a middleware that assigns every request an ID. A well-formed
// inbound X-Request-ID is reused; otherwise a random UUID is generated.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > maxRequestIDLength || !printableASCII(id) {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(SetRequestIDInContext(r.Context(), id)))
		})
	}
}

func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// RouteGuard returns a middleware that applies guard.Evaluate to page navigations.
// It only inspects cookie presence and never calls the backend. Non-GET/HEAD
// requests pass through untouched; the API handlers enforce their own rules.
func RouteGuard(cookies *SessionCookies, rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			decision := guard.Evaluate(r.URL.Path, cookies.Presence(r))
			if decision.Allowed() {
				rec.GuardDecision(decision.Zone.String(), "allow")
				next.ServeHTTP(w, r)
				return
			}

			rec.GuardDecision(decision.Zone.String(), "redirect")
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
		})
	}
}

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
