package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// UserType is the backend's classification of an account.
// Keep string form so it round-trips through JSON unchanged.
type UserType string

const (
	UserTypeCommon     UserType = "common"
	UserTypeAdmin      UserType = "admin"
	UserTypeStoreStaff UserType = "store_staff"
)

// Valid reports whether t is one of the known user types.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeCommon, UserTypeAdmin, UserTypeStoreStaff:
		return true
	default:
		return false
	}
}

// SessionKind identifies which of the two mutually exclusive sessions a token belongs to.
type SessionKind int

const (
	SessionNone SessionKind = iota
	SessionUser
	SessionAdmin
)

func (k SessionKind) String() string {
	switch k {
	case SessionUser:
		return "user"
	case SessionAdmin:
		return "admin"
	default:
		return "none"
	}
}

// Default session lifetimes. Expiry is fixed at login; verification never extends it.
const (
	UserSessionTTL  = 7 * 24 * time.Hour
	AdminSessionTTL = 2 * time.Hour
)

// Identity is the normalized user record returned by the backend.
// Adapters map the backend's inconsistent field names into this shape.
type Identity struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	UserType  UserType   `json:"user_type"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
}

// Presence records which session cookies a request carries.
// Only presence is tracked here; validity is the verifier's job.
type Presence struct {
	User  bool
	Admin bool
}

// Kind returns the session a request would be treated as.
// When both cookies are present the admin session takes precedence.
func (p Presence) Kind() SessionKind {
	switch {
	case p.Admin:
		return SessionAdmin
	case p.User:
		return SessionUser
	default:
		return SessionNone
	}
}

// Credentials is the login form input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register form input.
type Registration struct {
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	UserType UserType `json:"user_type"`
}

// Normalize trims whitespace and lowercases the email address.
func (c Credentials) Normalize() Credentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

// Normalize trims whitespace and lowercases the email address.
func (r Registration) Normalize() Registration {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
	if r.UserType == "" {
		r.UserType = UserTypeCommon
	}
	return r
}

// Grant is the result of a successful login against the backend.
// Token is the opaque bearer credential; it must only ever be stored in an httpOnly cookie.
type Grant struct {
	Token       string
	User        Identity
	// HasUser reports whether the login response carried a user object.
	HasUser     bool
	Permissions PermissionSet
}

// Verification is the outcome of checking a session token against the backend.
// It is recomputed on every page load and never cached.
type Verification struct {
	Valid       bool          `json:"valid"`
	User        Identity      `json:"user"`
	Permissions PermissionSet `json:"permissions"`
}
