// Package guard classifies storefront navigations and decides whether they pass
// or are redirected, based only on which session cookies are present.
//
// Evaluation is synchronous and makes no network calls. Token validity is checked
// later by the page itself through the verifier.
package guard

import (
	"strings"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
)

// Well-known navigation targets.
const (
	PathRoot           = "/"
	PathUserLogin      = "/auth/login"
	PathUserRegister   = "/auth/register"
	PathUserHome       = "/home"
	PathAdminLogin     = "/admin/login"
	PathAdminDashboard = "/admin"
)

// Zone is the classification of a request path.
type Zone int

const (
	ZonePublic Zone = iota
	ZoneRoot
	ZoneUserAuthPage
	ZoneUserProtected
	ZoneAdminAuthPage
	ZoneAdminProtected
)

func (z Zone) String() string {
	switch z {
	case ZoneRoot:
		return "root"
	case ZoneUserAuthPage:
		return "user_auth_page"
	case ZoneUserProtected:
		return "user_protected"
	case ZoneAdminAuthPage:
		return "admin_auth_page"
	case ZoneAdminProtected:
		return "admin_protected"
	default:
		return "public"
	}
}

// Decision is either Allow or a redirect to Location.
type Decision struct {
	Zone     Zone
	Location string
}

// Allowed reports whether the navigation passes through.
func (d Decision) Allowed() bool { return d.Location == "" }

func allow(z Zone) Decision { return Decision{Zone: z} }

func redirectTo(z Zone, loc string) Decision { return Decision{Zone: z, Location: loc} }

// Classify maps a request path to its zone. Matching is case-insensitive and
// ignores a trailing slash.
func Classify(path string) Zone {
	p := normalize(path)

	switch {
	case p == PathRoot:
		return ZoneRoot
	case p == PathAdminLogin:
		return ZoneAdminAuthPage
	case under(p, PathAdminDashboard):
		return ZoneAdminProtected
	case under(p, PathUserHome):
		return ZoneUserProtected
	case under(p, "/auth"):
		return ZoneUserAuthPage
	default:
		return ZonePublic
	}
}

// Evaluate classifies path and applies the redirect rules for the given cookie presence.
func Evaluate(path string, has domainauth.Presence) Decision {
	zone := Classify(path)

	switch zone {
	case ZoneRoot:
		if has.Admin {
			return redirectTo(zone, PathAdminDashboard)
		}
		if has.User {
			return redirectTo(zone, PathUserHome)
		}

	case ZoneUserAuthPage:
		if has.User {
			return redirectTo(zone, PathUserHome)
		}

	case ZoneUserProtected:
		if has.User {
			return allow(zone)
		}
		// An admin without a user session is sent to its own area rather than
		// being treated as anonymous.
		if has.Admin {
			return redirectTo(zone, PathAdminDashboard)
		}
		return redirectTo(zone, PathUserLogin)

	case ZoneAdminAuthPage:
		if has.Admin {
			return redirectTo(zone, PathAdminDashboard)
		}

	case ZoneAdminProtected:
		// A plain user session is never promoted; it must log in as admin.
		if !has.Admin {
			return redirectTo(zone, PathAdminLogin)
		}

	case ZonePublic:
	}

	return allow(zone)
}

func normalize(path string) string {
	if path == "" {
		return PathRoot
	}
	p := strings.ToLower(path)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = PathRoot
		}
	}
	return p
}

func under(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
