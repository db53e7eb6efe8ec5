package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	"github.com/mydrops/storefront-edge/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, in service.LoginInput) (domainauth.Grant, error)
	AdminLogin(ctx context.Context, in service.LoginInput) (domainauth.Grant, error)
	Register(ctx context.Context, in service.RegisterInput) error
	VerifyUser(ctx context.Context, token string) (domainauth.Verification, error)
	VerifyAdmin(ctx context.Context, token string) (domainauth.Verification, error)
}

// AuthHandlers provides the same-origin authentication API.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Cookies *SessionCookies
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

type loginResponse struct {
	Message     string               `json:"message"`
	User        *domainauth.Identity `json:"user,omitempty"`
	Permissions []string             `json:"permissions,omitempty"`
}

type verifyResponse struct {
	Valid       bool                `json:"valid"`
	User        domainauth.Identity `json:"user"`
	Permissions []string            `json:"permissions"`
}

// Login handles user login. The token goes into the cookie only, never the body.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	grant, err := h.Svc.Login(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		ClientKey: clientKey(r),
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.Cookies.ClearAdminSession(w, r)
	h.Cookies.SetUserSession(w, r, grant.Token)

	resp := loginResponse{Message: "Login successful"}
	if grant.HasUser {
		resp.User = &grant.User
	}
	WriteJSON(w, http.StatusOK, resp)
}

// AdminLogin handles admin login and stores the granted permissions alongside the token.
// POST /api/auth/admin/login.
func (h *AuthHandlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	grant, err := h.Svc.AdminLogin(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		ClientKey: clientKey(r),
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.Cookies.ClearUserSession(w, r)
	h.Cookies.SetAdminSession(w, r, grant.Token, grant.Permissions)

	WriteJSON(w, http.StatusOK, loginResponse{
		Message:     "Admin login successful",
		User:        &grant.User,
		Permissions: grant.Permissions.List(),
	})
}

// Register forwards a registration. It does not log the new account in.
// POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	err := h.Svc.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		UserType: req.UserType,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful. Please log in."})
}

// Logout clears the user session cookie. It always succeeds.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.ClearUserSession(w, r)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// AdminLogout clears both admin cookies. It always succeeds.
// POST /api/auth/admin/logout.
func (h *AuthHandlers) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.ClearAdminSession(w, r)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Admin logged out successfully"})
}

// Verify checks the user session against the backend.
// POST /api/auth/verify.
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	v, err := h.Svc.VerifyUser(r.Context(), h.Cookies.UserToken(r))
	if err != nil {
		h.writeVerifyFailure(w, r, domainauth.SessionUser, err)
		return
	}
	writeVerification(w, v)
}

// AdminVerify checks the admin session against the backend.
// POST /api/auth/admin/verify.
func (h *AuthHandlers) AdminVerify(w http.ResponseWriter, r *http.Request) {
	v, err := h.Svc.VerifyAdmin(r.Context(), h.Cookies.AdminToken(r))
	if err != nil {
		h.writeVerifyFailure(w, r, domainauth.SessionAdmin, err)
		return
	}
	writeVerification(w, v)
}

// Session reports which session cookies are present without exposing them.
// GET /api/auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	p := h.Cookies.Presence(r)
	WriteJSON(w, http.StatusOK, map[string]bool{"user": p.User, "admin": p.Admin})
}

func writeVerification(w http.ResponseWriter, v domainauth.Verification) {
	WriteJSON(w, http.StatusOK, verifyResponse{Valid: true, User: v.User, Permissions: v.Permissions.List()})
}

// writeVerifyFailure answers 401 for every failure kind. A token the backend
// rejected is cleared so the guard stops treating it as a session.
func (h *AuthHandlers) writeVerifyFailure(
	w http.ResponseWriter,
	r *http.Request,
	kind domainauth.SessionKind,
	err error,
) {
	msg := "Invalid token"
	if ve, ok := service.AsVerifyError(err); ok {
		msg = ve.Message()
		if ve.Kind == service.VerifyBackendRejected {
			h.clearSession(w, r, kind)
		}
	} else {
		h.logger().ErrorContext(r.Context(), "unexpected verify error", "session", kind.String(), "error", err)
	}
	WriteJSON(w, http.StatusUnauthorized, map[string]any{"valid": false, "error": msg})
}

func (h *AuthHandlers) clearSession(w http.ResponseWriter, r *http.Request, kind domainauth.SessionKind) {
	if kind == domainauth.SessionAdmin {
		h.Cookies.ClearAdminSession(w, r)
		return
	}
	h.Cookies.ClearUserSession(w, r)
}

// clientKey identifies the caller for login rate limiting.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
