package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
)

var (
	none      = domainauth.Presence{}
	userOnly  = domainauth.Presence{User: true}
	adminOnly = domainauth.Presence{Admin: true}
	both      = domainauth.Presence{User: true, Admin: true}
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Zone
	}{
		{"/", ZoneRoot},
		{"", ZoneRoot},
		{"/auth/login", ZoneUserAuthPage},
		{"/auth/register", ZoneUserAuthPage},
		{"/auth", ZoneUserAuthPage},
		{"/home", ZoneUserProtected},
		{"/Home", ZoneUserProtected},
		{"/home/orders/12", ZoneUserProtected},
		{"/admin/login", ZoneAdminAuthPage},
		{"/admin/login/", ZoneAdminAuthPage},
		{"/admin", ZoneAdminProtected},
		{"/admin/", ZoneAdminProtected},
		{"/admin/database/users", ZoneAdminProtected},
		{"/ADMIN/database/products", ZoneAdminProtected},
		{"/administrator", ZonePublic},
		{"/authors", ZonePublic},
		{"/homepage", ZonePublic},
		{"/api/products", ZonePublic},
		{"/static/app.css", ZonePublic},
		{"/healthz", ZonePublic},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		path string
		has  domainauth.Presence
		want string // empty means allow
	}{
		{"root anonymous", "/", none, ""},
		{"root user", "/", userOnly, PathUserHome},
		{"root admin", "/", adminOnly, PathAdminDashboard},
		{"root both prefers admin", "/", both, PathAdminDashboard},

		{"login anonymous", "/auth/login", none, ""},
		{"login with user", "/auth/login", userOnly, PathUserHome},
		{"register with user", "/auth/register", userOnly, PathUserHome},
		{"login with admin only", "/auth/login", adminOnly, ""},

		{"home anonymous", "/home", none, PathUserLogin},
		{"home user", "/home", userOnly, ""},
		{"home admin only", "/home", adminOnly, PathAdminDashboard},
		{"home both", "/home", both, ""},

		{"admin login anonymous", "/admin/login", none, ""},
		{"admin login with admin", "/admin/login", adminOnly, PathAdminDashboard},
		{"admin login with user", "/admin/login", userOnly, ""},

		{"admin anonymous", "/admin", none, PathAdminLogin},
		{"admin user only", "/admin/database/products", userOnly, PathAdminLogin},
		{"admin with admin", "/admin/database/users", adminOnly, ""},
		{"admin both", "/admin", both, ""},

		{"public anonymous", "/products/42", none, ""},
		{"public with sessions", "/api/auth/login", both, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.path, tt.has)
			assert.Equal(t, tt.want, d.Location)
			assert.Equal(t, tt.want == "", d.Allowed())
		})
	}
}

func TestEvaluate_AdminProtectedDependsOnlyOnAdminPresence(t *testing.T) {
	paths := []string{"/admin", "/admin/database/products", "/admin/database/categories", "/admin/settings/general"}

	for _, p := range paths {
		for _, user := range []bool{false, true} {
			missing := Evaluate(p, domainauth.Presence{User: user})
			assert.Equal(t, PathAdminLogin, missing.Location, "path %s user=%v", p, user)

			present := Evaluate(p, domainauth.Presence{User: user, Admin: true})
			assert.True(t, present.Allowed(), "path %s user=%v", p, user)
		}
	}
}

func TestEvaluate_UserProtectedAdminPrecedence(t *testing.T) {
	for _, p := range []string{"/home", "/home/cart", "/HOME/profile"} {
		d := Evaluate(p, adminOnly)
		assert.Equal(t, PathAdminDashboard, d.Location)
		assert.NotEqual(t, PathUserLogin, d.Location)
	}
}

func TestZoneString(t *testing.T) {
	assert.Equal(t, "admin_protected", ZoneAdminProtected.String())
	assert.Equal(t, "public", ZonePublic.String())
	assert.Equal(t, "root", Evaluate("/", none).Zone.String())
}
