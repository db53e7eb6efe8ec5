package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	"github.com/mydrops/storefront-edge/internal/domain/guard"
	apperrors "github.com/mydrops/storefront-edge/internal/errors"
)

// PageData is the view model shared by every page template.
type PageData struct {
	Title       string
	User        *domainauth.Identity
	Permissions []string
	Nav         []domainauth.NavItem
	LogoutPath  string
	LogoutNext  string
	FormAction  string
	FormNext    string
	Resource    string
}

// adminSections are the informational admin pages reachable from the navigation.
var adminSections = map[string]string{
	"analytics/sales":       "Sales analytics",
	"analytics/users":       "User analytics",
	"analytics/products":    "Product analytics",
	"settings/general":      "General settings",
	"settings/permissions":  "Permission settings",
	"settings/integrations": "Integrations",
	"support":               "Support",
}

// PageHandlers renders the guarded navigation targets. Protected pages verify
// their session against the backend on every load; the guard in front of them
// has only checked cookie presence.
type PageHandlers struct {
	Svc      AuthServiceInterface
	Cookies  *SessionCookies
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Landing renders the public entry page. GET /.
func (h *PageHandlers) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "landing", PageData{Title: "Welcome"})
}

// UserLogin renders the user login form. GET /auth/login.
func (h *PageHandlers) UserLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", PageData{Title: "Sign in", FormAction: "/api/auth/login", FormNext: guard.PathUserHome})
}

// Register renders the registration form. GET /auth/register.
func (h *PageHandlers) Register(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", PageData{Title: "Create an account"})
}

// AdminLogin renders the admin login form. GET /admin/login.
func (h *PageHandlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", PageData{
		Title:      "Staff sign in",
		FormAction: "/api/auth/admin/login",
		FormNext:   guard.PathAdminDashboard,
	})
}

// Home renders the signed-in user's page. GET /home.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	v, err := h.Svc.VerifyUser(r.Context(), h.Cookies.UserToken(r))
	if err != nil {
		h.logger().InfoContext(r.Context(), "user page verification failed", "error", err)
		h.Cookies.ClearUserSession(w, r)
		redirect(w, r, guard.PathUserLogin)
		return
	}

	h.render(w, r, "home", PageData{
		Title:      "My account",
		User:       &v.User,
		LogoutPath: "/api/auth/logout",
		LogoutNext: guard.PathUserLogin,
	})
}

// Dashboard renders the admin home. GET /admin.
func (h *PageHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	v, perms, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	data := h.adminData("Dashboard", v, perms)
	data.Permissions = perms.List()
	h.render(w, r, "dashboard", data)
}

// AdminResource renders a database page gated by the permission rules for page.
func (h *PageHandlers) AdminResource(page domainauth.Page, title, resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, perms, ok := h.requireAdmin(w, r)
		if !ok {
			return
		}
		if domainauth.CanView(page, v.User, perms) == domainauth.AccessDenied {
			h.logger().InfoContext(r.Context(), "admin page denied",
				"page", string(page), "user_id", v.User.ID, "user_type", string(v.User.UserType),
				"error", apperrors.Forbidden("missing permission for "+string(page)))
			redirect(w, r, guard.PathAdminDashboard)
			return
		}
		data := h.adminData(title, v, perms)
		data.Resource = resource
		h.render(w, r, "resource", data)
	}
}

// AdminSection renders the informational admin pages. GET /admin/{section...}.
func (h *PageHandlers) AdminSection(w http.ResponseWriter, r *http.Request) {
	title, known := adminSections[r.PathValue("section")]
	if !known {
		http.NotFound(w, r)
		return
	}
	v, perms, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	h.render(w, r, "section", h.adminData(title, v, perms))
}

// requireAdmin verifies the admin session. On failure the stale cookies are
// cleared and the browser is sent to the admin login page.
func (h *PageHandlers) requireAdmin(
	w http.ResponseWriter,
	r *http.Request,
) (domainauth.Verification, domainauth.PermissionSet, bool) {
	v, err := h.Svc.VerifyAdmin(r.Context(), h.Cookies.AdminToken(r))
	if err != nil {
		h.logger().InfoContext(r.Context(), "admin page verification failed", "error", err)
		h.Cookies.ClearAdminSession(w, r)
		redirect(w, r, guard.PathAdminLogin)
		return domainauth.Verification{}, nil, false
	}

	perms := v.Permissions
	if len(perms) == 0 {
		perms = h.Cookies.AdminPermissions(r)
	}
	return v, perms, true
}

func (h *PageHandlers) adminData(title string, v domainauth.Verification, perms domainauth.PermissionSet) PageData {
	return PageData{
		Title:      title,
		User:       &v.User,
		Nav:        domainauth.NavigationFor(v.User, perms),
		LogoutPath: "/api/auth/admin/logout",
		LogoutNext: guard.PathAdminLogin,
	}
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, page string, data PageData) {
	if err := h.Renderer.Render(w, http.StatusOK, page, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render page", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, location, http.StatusTemporaryRedirect)
}
