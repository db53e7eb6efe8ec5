package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"

	"github.com/mydrops/storefront-edge/internal/adapters/backend"
	"github.com/mydrops/storefront-edge/internal/service"
	"github.com/mydrops/storefront-edge/internal/testutil"
)

var (
	shopper = testutil.StubAccount{
		ID: 7, Username: "reader", Email: "reader@example.com", Password: "hunter22", UserType: "common",
	}
	staffAdmin = testutil.StubAccount{
		ID: 1, Username: "boss", Email: "boss@example.com", Password: "hunter22", UserType: "admin",
		Permissions: []string{"manage_books"},
	}
)

type edge struct {
	stub   *testutil.StubBackend
	server *httptest.Server
	client *http.Client
}

// newEdge runs the full edge against a stub backend over real HTTP. The
// client keeps cookies but never follows redirects.
func newEdge(t *testing.T) *edge {
	t.Helper()
	stub := testutil.NewStubBackend(shopper, staffAdmin)
	t.Cleanup(stub.Close)

	client, err := backend.NewClient(backend.Options{BaseURL: stub.URL(), Timeout: 2 * time.Second})
	require.NoError(t, err)

	h := NewRouter(RouterServices{
		Auth:      service.NewAuthService(service.AuthServiceOptions{Backend: client}),
		Forwarder: client,
		Cookies:   NewSessionCookies(CookieOptions{}),
		Renderer:  requireRenderer(t),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)

	return &edge{
		stub:   stub,
		server: srv,
		client: &http.Client{
			Jar:     jar,
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (e *edge) send(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(out)
}

func credentials(a testutil.StubAccount) string {
	b, _ := json.Marshal(map[string]string{"email": a.Email, "password": a.Password})
	return string(b)
}

func TestEdge_UserSessionRoundTrip(t *testing.T) {
	for _, idField := range []string{"user_id", "id"} {
		t.Run(idField, func(t *testing.T) {
			e := newEdge(t)
			e.stub.VerifyIDField = idField

			resp, body := e.send(t, http.MethodPost, "/api/auth/login", credentials(shopper))
			require.Equal(t, http.StatusOK, resp.StatusCode, body)
			assert.NotContains(t, body, "user-token-7")

			resp, body = e.send(t, http.MethodGet, "/home", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, "Welcome back, reader.")
			assert.Equal(t, "Bearer user-token-7", e.stub.LastAuthorization("/api/v1/auth/verify-token"))

			resp, _ = e.send(t, http.MethodGet, "/", "")
			assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
			assert.Equal(t, "/home", resp.Header.Get("Location"))

			resp, _ = e.send(t, http.MethodPost, "/api/auth/logout", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			resp, _ = e.send(t, http.MethodPost, "/api/auth/logout", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			before := len(e.stub.Calls())
			resp, _ = e.send(t, http.MethodGet, "/home", "")
			assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
			assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
			assert.Len(t, e.stub.Calls(), before, "the guard redirects without asking the backend")
		})
	}
}

func TestEdge_RevokedUserTokenIsCleared(t *testing.T) {
	e := newEdge(t)

	resp, _ := e.send(t, http.MethodPost, "/api/auth/login", credentials(shopper))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	e.stub.Revoke("user-token-7")

	resp, _ = e.send(t, http.MethodGet, "/home", "")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	// The cookie is gone, so the login page is served instead of bouncing back.
	resp, _ = e.send(t, http.MethodGet, "/auth/login", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEdge_AdminPagesWithoutCookies(t *testing.T) {
	e := newEdge(t)

	for _, path := range []string{"/admin", "/admin/database/products", "/admin/settings/general"} {
		resp, _ := e.send(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode, path)
		assert.Equal(t, "/admin/login", resp.Header.Get("Location"), path)
	}
	assert.Empty(t, e.stub.Calls())
}

func TestEdge_AdminCatalogFlow(t *testing.T) {
	e := newEdge(t)

	resp, body := e.send(t, http.MethodPost, "/api/auth/admin/login", credentials(staffAdmin))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "manage_books")

	resp, body = e.send(t, http.MethodGet, "/admin/database/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Users")

	resp, body = e.send(t, http.MethodPost, "/api/products", `{"name":"Dune"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.JSONEq(t, `{"name":"Dune","id":2}`, body)
	assert.Equal(t, "Bearer admin-token-1", e.stub.LastAuthorization("/api/v1/products/"))

	resp, body = e.send(t, http.MethodDelete, "/api/products/2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, body)

	resp, _ = e.send(t, http.MethodPost, "/api/auth/admin/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.send(t, http.MethodPost, "/api/products", `{"name":"Dune"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEdge_AdminLoginRejectsCustomers(t *testing.T) {
	e := newEdge(t)

	resp, body := e.send(t, http.MethodPost, "/api/auth/admin/login", credentials(shopper))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "Not enough privileges")
	for _, c := range resp.Cookies() {
		assert.NotEqual(t, CookieAdminToken, c.Name)
	}
}
