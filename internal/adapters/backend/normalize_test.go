package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantID  int64
		wantErr bool
	}{
		{"user_id", `{"user":{"user_id":7,"id":99,"username":"ana"}}`, 7, false},
		{"id fallback", `{"user":{"id":8,"username":"ana"}}`, 8, false},
		{"string id", `{"user":{"user_id":"9"}}`, 9, false},
		{"null user_id falls back", `{"user":{"user_id":null,"id":10}}`, 10, false},
		{"no id", `{"user":{"username":"ana"}}`, 0, true},
		{"fractional id", `{"user":{"id":1.5}}`, 0, true},
		{"no user", `{"valid":true}`, 0, true},
		{"user not object", `{"user":"ana"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIdentity(decode(t, tt.doc))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestNormalizeIdentity_Fields(t *testing.T) {
	got, err := NormalizeIdentity(decode(t, `{"user":{
		"user_id": 3, "username": "staff", "email": "s@example.com",
		"user_type": "store_staff", "is_active": true, "last_login": "2026-02-03T04:05:06.123456"
	}}`))
	require.NoError(t, err)

	assert.Equal(t, "staff", got.Username)
	assert.Equal(t, "s@example.com", got.Email)
	assert.Equal(t, domainauth.UserTypeStoreStaff, got.UserType)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, 2026, got.LastLogin.Year())

	noLogin, err := NormalizeIdentity(decode(t, `{"user":{"id":3,"last_login":"yesterday"}}`))
	require.NoError(t, err)
	assert.Nil(t, noLogin.LastLogin)
}

func TestNormalizePermissions(t *testing.T) {
	perms, err := NormalizePermissions(decode(t, `{"permissions":["manage_books","view_reports"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"manage_books", "view_reports"}, perms.List())

	empty, err := NormalizePermissions(decode(t, `{"permissions":null}`))
	require.NoError(t, err)
	assert.Empty(t, empty.List())

	_, err = NormalizePermissions(decode(t, `{"permissions":"manage_books"}`))
	require.Error(t, err)

	_, err = NormalizePermissions(decode(t, `{"permissions":[1]}`))
	require.Error(t, err)
}

func TestNormalizeVerification(t *testing.T) {
	v, err := NormalizeVerification(decode(t, `{"valid":true,"user":{"user_id":5},"permissions":["manage_books"]}`))
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, int64(5), v.User.ID)
	assert.True(t, domainauth.HasPermission(domainauth.PermManageBooks, v.Permissions))

	invalid, err := NormalizeVerification(decode(t, `{"valid":false}`))
	require.NoError(t, err)
	assert.False(t, invalid.Valid)

	implicit, err := NormalizeVerification(decode(t, `{"user":{"id":6}}`))
	require.NoError(t, err)
	assert.True(t, implicit.Valid)
}

func TestNormalizeGrant(t *testing.T) {
	g, err := NormalizeGrant(decode(t, `{"access_token":"t1"}`), false)
	require.NoError(t, err)
	assert.Equal(t, "t1", g.Token)
	assert.Zero(t, g.User.ID)
	assert.False(t, g.HasUser)

	_, err = NormalizeGrant(decode(t, `{"access_token":"t1"}`), true)
	require.Error(t, err, "admin grants need a user object")

	_, err = NormalizeGrant(decode(t, `{"access_token":""}`), false)
	require.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Incorrect password"}`, "Incorrect password"},
		{"detail list", `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email"}]}`, "value is not a valid email"},
		{"error field", `{"error":"Email taken"}`, "Email taken"},
		{"message field", `{"message":"Nope"}`, "Nope"},
		{"empty detail", `{"detail":""}`, "fallback"},
		{"not json", `Internal Server Error`, "fallback"},
		{"empty body", ``, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage([]byte(tt.body), "fallback"))
		})
	}
}
