package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	apperrors "github.com/mydrops/storefront-edge/internal/errors"
	mockauth "github.com/mydrops/storefront-edge/internal/mocks/auth"
	"github.com/mydrops/storefront-edge/internal/service"
)

const fakeLoginBody = `{"email":"mock.admin@example.com","password":"password123"}`

func TestAuthHandlers_Login_SetsCookieOnly(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(withCookies(jsonRequest(http.MethodPost, "/api/auth/login", fakeLoginBody),
		CookieAdminToken, "old-admin"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ck := responseCookie(rec, CookieUserToken)
	require.NotNil(t, ck)
	assert.Equal(t, "user-token-1", ck.Value)
	assert.True(t, ck.HttpOnly)

	cleared := responseCookie(rec, CookieAdminToken)
	require.NotNil(t, cleared, "user login clears the admin session")
	assert.Equal(t, -1, cleared.MaxAge)

	assert.NotContains(t, rec.Body.String(), "user-token-1", "token must never appear in the body")
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Login successful", body["message"])
	assert.NotNil(t, body["user"])
}

func TestAuthHandlers_Login_ValidationSkipsBackend(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"not-an-email","password":"123"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, responseCookie(rec, CookieUserToken))
	assert.Zero(t, tr.backend.TotalCalls())

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestAuthHandlers_Login_BackendRejects(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(jsonRequest(http.MethodPost, "/api/auth/login",
		`{"email":"mock.admin@example.com","password":"wrong-pass"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, responseCookie(rec, CookieUserToken))
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestAuthHandlers_Login_NetworkFailureIsGeneric(t *testing.T) {
	tr := newTestRouter(t)
	tr.backend.LoginFunc = func(context.Context, domainauth.Credentials) (domainauth.Grant, error) {
		return domainauth.Grant{}, apperrors.Network(context.DeadlineExceeded)
	}

	rec := tr.do(jsonRequest(http.MethodPost, "/api/auth/login", fakeLoginBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":"internal"}`, rec.Body.String())
}

func TestAuthHandlers_Login_WithoutUserObject(t *testing.T) {
	tr := newTestRouter(t)
	tr.backend.LoginFunc = func(context.Context, domainauth.Credentials) (domainauth.Grant, error) {
		return domainauth.Grant{Token: "bare-token"}, nil
	}

	rec := tr.do(jsonRequest(http.MethodPost, "/api/auth/login", fakeLoginBody))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, responseCookie(rec, CookieUserToken))
	assert.JSONEq(t, `{"message":"Login successful"}`, rec.Body.String())
}

func TestAuthHandlers_AdminLogin(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(withCookies(jsonRequest(http.MethodPost, "/api/auth/admin/login", fakeLoginBody),
		CookieUserToken, "old-user"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := responseCookie(rec, CookieAdminToken)
	require.NotNil(t, tok)
	assert.Equal(t, "admin-token-1", tok.Value)
	require.NotNil(t, responseCookie(rec, CookieAdminPermissions))

	cleared := responseCookie(rec, CookieUserToken)
	require.NotNil(t, cleared, "admin login clears the user session")
	assert.Equal(t, -1, cleared.MaxAge)

	var body struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{domainauth.PermManageBooks}, body.Permissions)
	assert.NotContains(t, rec.Body.String(), "admin-token-1")
}

func TestAuthHandlers_Register(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(jsonRequest(http.MethodPost, "/api/auth/register",
		`{"email":"new@example.com","username":"newbie","password":"secret9"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "registration never logs in")
	assert.Equal(t, 1, tr.backend.Calls("Register"))

	rec = tr.do(jsonRequest(http.MethodPost, "/api/auth/register",
		`{"email":"new@example.com","username":"newbie","password":"secret9","user_type":"store_staff"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_type")
	assert.Equal(t, 1, tr.backend.Calls("Register"))
}

func TestAuthHandlers_LogoutIsIdempotent(t *testing.T) {
	tr := newTestRouter(t)

	for _, path := range []string{"/api/auth/logout", "/api/auth/admin/logout"} {
		for i := 0; i < 2; i++ {
			rec := tr.do(jsonRequest(http.MethodPost, path, ""))
			assert.Equal(t, http.StatusOK, rec.Code, path)
			assert.NotEmpty(t, rec.Result().Cookies(), path)
		}
	}
	assert.Zero(t, tr.backend.TotalCalls())
}

func TestAuthHandlers_Verify(t *testing.T) {
	tr := newTestRouter(t)

	login := tr.do(jsonRequest(http.MethodPost, "/api/auth/admin/login", fakeLoginBody))
	tok := responseCookie(login, CookieAdminToken)
	require.NotNil(t, tok)

	rec := tr.do(withCookies(jsonRequest(http.MethodPost, "/api/auth/admin/verify", ""), CookieAdminToken, tok.Value))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Valid       bool                `json:"valid"`
		User        domainauth.Identity `json:"user"`
		Permissions []string            `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Valid)
	assert.Equal(t, int64(1), body.User.ID)
	assert.Equal(t, []string{domainauth.PermManageBooks}, body.Permissions)

	// Admin token presented as a user session is rejected and cleared.
	rec = tr.do(withCookies(jsonRequest(http.MethodPost, "/api/auth/verify", ""), CookieUserToken, tok.Value))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"valid":false,"error":"Invalid token"}`, rec.Body.String())
	cleared := responseCookie(rec, CookieUserToken)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestAuthHandlers_VerifyKeepsSessionDuringOutage(t *testing.T) {
	tr := newTestRouter(t)
	tr.backend.VerifyTokenFunc = func(context.Context, domainauth.SessionKind, string) (domainauth.Verification, error) {
		return domainauth.Verification{}, apperrors.Upstream(http.StatusServiceUnavailable, "maintenance")
	}

	for _, c := range []struct{ path, cookie string }{
		{"/api/auth/admin/verify", CookieAdminToken},
		{"/api/auth/verify", CookieUserToken},
	} {
		rec := tr.do(withCookies(jsonRequest(http.MethodPost, c.path, ""), c.cookie, "live"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code, c.path)
		assert.JSONEq(t, `{"valid":false,"error":"Session could not be verified"}`, rec.Body.String(), c.path)
		assert.Empty(t, rec.Result().Cookies(), "%s must not clear the session", c.path)
	}
}

func TestAuthHandlers_VerifyWithoutCookie(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(jsonRequest(http.MethodPost, "/api/auth/verify", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"valid":false,"error":"No session token"}`, rec.Body.String())
	assert.Zero(t, tr.backend.TotalCalls())
}

func TestAuthHandlers_Session(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(withCookies(jsonRequest(http.MethodGet, "/api/auth/session", ""), CookieUserToken, "u"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":true,"admin":false}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), `"u"`)
}

func TestAuthHandlers_LoginRateLimited(t *testing.T) {
	backend := mockauth.NewFakeBackend()
	svc := service.NewAuthService(service.AuthServiceOptions{
		Backend: backend,
		Limiter: &mockauth.CountingLimiter{Limit: 1},
	})
	h := NewRouter(RouterServices{Auth: svc, Cookies: NewSessionCookies(CookieOptions{})})

	wrong := `{"email":"mock.admin@example.com","password":"wrong-pass"}`

	first := httptest.NewRecorder()
	h.ServeHTTP(first, jsonRequest(http.MethodPost, "/api/auth/login", wrong))
	assert.Equal(t, http.StatusUnauthorized, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, jsonRequest(http.MethodPost, "/api/auth/login", fakeLoginBody))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, 1, backend.Calls("Login"))
}
