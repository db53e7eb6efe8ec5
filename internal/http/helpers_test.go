package httpx

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	storefront "github.com/mydrops/storefront-edge"
	mockauth "github.com/mydrops/storefront-edge/internal/mocks/auth"
	"github.com/mydrops/storefront-edge/internal/service"
)

// requireRenderer parses the embedded page templates.
func requireRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	sub, err := fs.Sub(storefront.TemplateFS, "frontend/templates")
	require.NoError(t, err)
	r, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: sub})
	require.NoError(t, err)
	return r
}

type testRouter struct {
	handler   http.Handler
	backend   *mockauth.FakeBackend
	forwarder *mockauth.FakeForwarder
	cookies   *SessionCookies
}

// newTestRouter wires the full router against in-memory doubles.
func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	backend := mockauth.NewFakeBackend()
	fwd := &mockauth.FakeForwarder{}
	cookies := NewSessionCookies(CookieOptions{})
	svc := service.NewAuthService(service.AuthServiceOptions{Backend: backend})

	return &testRouter{
		handler: NewRouter(RouterServices{
			Auth:      svc,
			Forwarder: fwd,
			Cookies:   cookies,
			Renderer:  requireRenderer(t),
		}),
		backend:   backend,
		forwarder: fwd,
		cookies:   cookies,
	}
}

func (tr *testRouter) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withCookies(req *http.Request, pairs ...string) *http.Request {
	for i := 0; i+1 < len(pairs); i += 2 {
		req.AddCookie(&http.Cookie{Name: pairs[i], Value: pairs[i+1]})
	}
	return req
}

// responseCookie returns the Set-Cookie named name from rec, or nil.
func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
