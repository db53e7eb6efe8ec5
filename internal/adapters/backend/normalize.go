package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
)

// The backend is inconsistent about field names; these expressions are the
// single place where its documents are mapped into domain shapes.
const (
	// Verify responses carry user_id, login responses carry id.
	exprUserID      = "user.user_id || user.id"
	exprUser        = "user"
	exprPermissions = "permissions"
	exprToken       = "access_token"
	exprValid       = "valid"
	// FastAPI validation errors put a list under detail.
	exprErrorMessage = "detail[0].msg || detail || error || message"
)

var lastLoginLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
}

func search(expr string, doc any) any {
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil
	}
	return v
}

// NormalizeIdentity extracts the user object of a backend document and maps it
// onto domainauth.Identity. The id is taken from user_id, falling back to id.
func NormalizeIdentity(doc any) (domainauth.Identity, error) {
	user, ok := search(exprUser, doc).(map[string]any)
	if !ok {
		return domainauth.Identity{}, errors.New("response has no user object")
	}

	id, err := toInt64(search(exprUserID, doc))
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("user id: %w", err)
	}

	ident := domainauth.Identity{
		ID:       id,
		Username: stringField(user, "username"),
		Email:    stringField(user, "email"),
		UserType: domainauth.UserType(stringField(user, "user_type")),
	}
	if active, ok := user["is_active"].(bool); ok {
		ident.IsActive = active
	}
	if raw := stringField(user, "last_login"); raw != "" {
		if ts, ok := parseLastLogin(raw); ok {
			ident.LastLogin = &ts
		}
	}
	return ident, nil
}

// NormalizePermissions returns the permissions array of a backend document.
// A missing or null array yields an empty set; permissions pass through unchanged.
func NormalizePermissions(doc any) (domainauth.PermissionSet, error) {
	raw := search(exprPermissions, doc)
	if raw == nil {
		return domainauth.NewPermissionSet(), nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("permissions: expected array, got %T", raw)
	}
	perms := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("permissions: expected string, got %T", it)
		}
		perms = append(perms, s)
	}
	return domainauth.NewPermissionSet(perms...), nil
}

// NormalizeVerification maps a verify-token response. A missing "valid" flag is
// treated as valid because the backend only answers 2xx for live tokens.
func NormalizeVerification(doc any) (domainauth.Verification, error) {
	valid := true
	if v, ok := search(exprValid, doc).(bool); ok {
		valid = v
	}
	if !valid {
		return domainauth.Verification{Valid: false}, nil
	}

	ident, err := NormalizeIdentity(doc)
	if err != nil {
		return domainauth.Verification{}, err
	}
	perms, err := NormalizePermissions(doc)
	if err != nil {
		return domainauth.Verification{}, err
	}
	return domainauth.Verification{Valid: true, User: ident, Permissions: perms}, nil
}

// NormalizeGrant maps a login response. access_token is mandatory; the user
// object is optional for plain user logins.
func NormalizeGrant(doc any, requireUser bool) (domainauth.Grant, error) {
	token, _ := search(exprToken, doc).(string)
	if strings.TrimSpace(token) == "" {
		return domainauth.Grant{}, errors.New("response has no access_token")
	}

	grant := domainauth.Grant{Token: token, Permissions: domainauth.NewPermissionSet()}

	if _, hasUser := search(exprUser, doc).(map[string]any); hasUser || requireUser {
		ident, err := NormalizeIdentity(doc)
		if err != nil {
			return domainauth.Grant{}, err
		}
		grant.User = ident
		grant.HasUser = true
	}

	perms, err := NormalizePermissions(doc)
	if err != nil {
		return domainauth.Grant{}, err
	}
	grant.Permissions = perms
	return grant, nil
}

// ErrorMessage extracts a human-readable message from a backend error body,
// returning fallback when none is present.
func ErrorMessage(body []byte, fallback string) string {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fallback
	}
	if msg, ok := search(exprErrorMessage, doc).(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func parseLastLogin(raw string) (time.Time, bool) {
	for _, layout := range lastLoginLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
