package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
)

// Session cookie names shared with the storefront frontend.
const (
	CookieUserToken        = "token"
	CookieAdminToken       = "admin_token"
	CookieAdminPermissions = "admin_permissions"
)

// CookieOptions configures SessionCookies.
type CookieOptions struct {
	Domain      string
	AdminPath   string
	UserMaxAge  time.Duration
	AdminMaxAge time.Duration
	// Secure forces the Secure attribute. Without it the attribute follows the request scheme.
	Secure bool
}

// SessionCookies reads and writes the user and admin session cookies.
// Tokens only ever live in httpOnly cookies and are never exposed to scripts.
type SessionCookies struct {
	opts CookieOptions
}

// NewSessionCookies constructs a SessionCookies with defaults for unset options.
func NewSessionCookies(opts CookieOptions) *SessionCookies {
	if opts.AdminPath == "" {
		opts.AdminPath = "/"
	}
	if opts.UserMaxAge <= 0 {
		opts.UserMaxAge = domainauth.UserSessionTTL
	}
	if opts.AdminMaxAge <= 0 {
		opts.AdminMaxAge = domainauth.AdminSessionTTL
	}
	return &SessionCookies{opts: opts}
}

// SetUserSession stores the user token for the configured user lifetime.
func (c *SessionCookies) SetUserSession(w http.ResponseWriter, r *http.Request, token string) {
	c.set(w, r, cookieSpec{name: CookieUserToken, value: token, path: "/", maxAge: c.opts.UserMaxAge})
}

// SetAdminSession stores the admin token and its permission list. Both cookies
// share the admin path and lifetime.
func (c *SessionCookies) SetAdminSession(
	w http.ResponseWriter,
	r *http.Request,
	token string,
	perms domainauth.PermissionSet,
) {
	c.set(w, r, cookieSpec{name: CookieAdminToken, value: token, path: c.opts.AdminPath, maxAge: c.opts.AdminMaxAge})
	c.set(w, r, cookieSpec{
		name:   CookieAdminPermissions,
		value:  encodePermissions(perms),
		path:   c.opts.AdminPath,
		maxAge: c.opts.AdminMaxAge,
	})
}

// ClearUserSession expires the user cookie. It is safe to call without a session.
func (c *SessionCookies) ClearUserSession(w http.ResponseWriter, r *http.Request) {
	c.clear(w, r, CookieUserToken, "/")
}

// ClearAdminSession expires both admin cookies. It is safe to call without a session.
func (c *SessionCookies) ClearAdminSession(w http.ResponseWriter, r *http.Request) {
	c.clear(w, r, CookieAdminToken, c.opts.AdminPath)
	c.clear(w, r, CookieAdminPermissions, c.opts.AdminPath)
}

// UserToken returns the user session token or "".
func (c *SessionCookies) UserToken(r *http.Request) string {
	return cookieValue(r, CookieUserToken)
}

// AdminToken returns the admin session token or "".
func (c *SessionCookies) AdminToken(r *http.Request) string {
	return cookieValue(r, CookieAdminToken)
}

// AdminPermissions returns the permission list stored at admin login.
// A missing or unreadable cookie yields an empty set.
func (c *SessionCookies) AdminPermissions(r *http.Request) domainauth.PermissionSet {
	raw := cookieValue(r, CookieAdminPermissions)
	if raw == "" {
		return domainauth.NewPermissionSet()
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return domainauth.NewPermissionSet()
	}
	var perms domainauth.PermissionSet
	if err := json.Unmarshal([]byte(decoded), &perms); err != nil || perms == nil {
		return domainauth.NewPermissionSet()
	}
	return perms
}

// Presence reports which session cookies the request carries.
func (c *SessionCookies) Presence(r *http.Request) domainauth.Presence {
	return domainauth.Presence{
		User:  c.UserToken(r) != "",
		Admin: c.AdminToken(r) != "",
	}
}

type cookieSpec struct {
	name   string
	value  string
	path   string
	maxAge time.Duration
}

func (c *SessionCookies) set(w http.ResponseWriter, r *http.Request, s cookieSpec) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    s.value,
		Path:     s.path,
		Domain:   c.opts.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.maxAge.Seconds()),
	})
}

// clear mirrors the attributes used when setting so browsers match the cookie.
func (c *SessionCookies) clear(w http.ResponseWriter, r *http.Request, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   c.opts.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func (c *SessionCookies) secure(r *http.Request) bool {
	return c.opts.Secure || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// encodePermissions stores the list as escaped JSON; raw quotes are not valid cookie octets.
func encodePermissions(perms domainauth.PermissionSet) string {
	b, err := json.Marshal(perms.List())
	if err != nil {
		return ""
	}
	return url.QueryEscape(string(b))
}
