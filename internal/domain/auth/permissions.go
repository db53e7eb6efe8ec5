package auth

import (
	"encoding/json"
	"sort"
)

// Capabilities checked by the storefront. The backend owns the full vocabulary;
// only the ones the UI branches on are named here.
const (
	PermManageBooks = "manage_books"
)

// PermissionSet is an unordered set of capability strings granted to an admin session.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from a list, dropping empty entries and duplicates.
func NewPermissionSet(perms ...string) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		s[p] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s PermissionSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// List returns the permissions sorted, so serialized forms are stable.
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a JSON array of strings.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a JSON array of strings; null yields an empty set.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewPermissionSet(list...)
	return nil
}

// HasPermission reports whether required is granted.
// This is an advisory UI check; the backend enforces authorization on every call.
func HasPermission(required string, granted PermissionSet) bool {
	if required == "" {
		return false
	}
	return granted.Has(required)
}

// IsAdmin reports whether the user type is admin.
func IsAdmin(t UserType) bool { return t == UserTypeAdmin }

// IsStaff reports whether the user type is store staff.
func IsStaff(t UserType) bool { return t == UserTypeStoreStaff }

// Page identifies an admin back-office page with its own access rule.
type Page string

const (
	PageDashboard  Page = "dashboard"
	PageProducts   Page = "products"
	PageCategories Page = "categories"
	PageUsers      Page = "users"
)

// Access is the outcome of checking an identity against a page rule.
type Access int

const (
	AccessGranted Access = iota
	// AccessDenied means the admin session is valid but lacks the capability.
	AccessDenied
)

// CanView applies the page rules: catalog pages need manage_books, the users page
// additionally needs the admin user type.
func CanView(page Page, id Identity, granted PermissionSet) Access {
	switch page {
	case PageProducts, PageCategories:
		if !HasPermission(PermManageBooks, granted) {
			return AccessDenied
		}
	case PageUsers:
		if !IsAdmin(id.UserType) {
			return AccessDenied
		}
	}
	return AccessGranted
}

// NavItem is one entry of the admin navigation.
type NavItem struct {
	Name     string
	Href     string
	SubItems []NavItem
}

// NavigationFor returns the admin navigation visible to the identity.
// The Database section is hidden without manage_books; the users entry is hidden for non-admins.
func NavigationFor(id Identity, granted PermissionSet) []NavItem {
	nav := []NavItem{{Name: "Home", Href: "/admin"}}

	if HasPermission(PermManageBooks, granted) {
		db := NavItem{Name: "Database", SubItems: []NavItem{
			{Name: "Products", Href: "/admin/database/products"},
			{Name: "Categories", Href: "/admin/database/categories"},
		}}
		if IsAdmin(id.UserType) {
			db.SubItems = append(db.SubItems, NavItem{Name: "Users", Href: "/admin/database/users"})
		}
		nav = append(nav, db)
	}

	nav = append(nav,
		NavItem{Name: "Analytics", SubItems: []NavItem{
			{Name: "Sales", Href: "/admin/analytics/sales"},
			{Name: "Users", Href: "/admin/analytics/users"},
			{Name: "Products", Href: "/admin/analytics/products"},
		}},
		NavItem{Name: "Settings", SubItems: []NavItem{
			{Name: "General", Href: "/admin/settings/general"},
			{Name: "Permissions", Href: "/admin/settings/permissions"},
			{Name: "Integrations", Href: "/admin/settings/integrations"},
		}},
		NavItem{Name: "Support", Href: "/admin/support"},
	)
	return nav
}
