package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// StubAccount is an account known to a StubBackend.
type StubAccount struct {
	ID          int64
	Username    string
	Email       string
	Password    string
	UserType    string
	Permissions []string
}

// StubBackend is an in-process storefront backend for tests. It issues
// deterministic tokens and records every request path it receives.
type StubBackend struct {
	Server *httptest.Server

	// VerifyIDField selects the id key in verify responses ("user_id" or "id").
	VerifyIDField string

	mu       sync.Mutex
	accounts map[string]StubAccount
	tokens   map[string]stubSession
	calls    []string
	lastAuth map[string]string
}

type stubSession struct {
	email string
	admin bool
}

// NewStubBackend starts a StubBackend seeded with accounts. Call Close when done.
func NewStubBackend(accounts ...StubAccount) *StubBackend {
	b := &StubBackend{
		VerifyIDField: "user_id",
		accounts:      make(map[string]StubAccount),
		tokens:        make(map[string]stubSession),
		lastAuth:      make(map[string]string),
	}
	for _, a := range accounts {
		b.accounts[a.Email] = a
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", b.login(false))
	mux.HandleFunc("POST /api/v1/auth/admin/login", b.login(true))
	mux.HandleFunc("POST /api/v1/auth/register", b.register)
	mux.HandleFunc("POST /api/v1/auth/verify-token", b.verify(false))
	mux.HandleFunc("POST /api/v1/auth/admin/verify-token", b.verify(true))
	mux.HandleFunc("/api/v1/products/", b.catalog("products", false))
	mux.HandleFunc("/api/v1/categories/", b.catalog("categories", false))
	mux.HandleFunc("/api/v1/users/", b.catalog("users", true))

	b.Server = httptest.NewServer(b.record(mux))
	return b
}

// URL returns the stub's base URL.
func (b *StubBackend) URL() string { return b.Server.URL }

// Close shuts the stub down.
func (b *StubBackend) Close() { b.Server.Close() }

// Calls returns the "METHOD path" of every request received so far.
func (b *StubBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// CallCount returns how many requests hit paths starting with prefix.
func (b *StubBackend) CallCount(prefix string) int {
	n := 0
	for _, c := range b.Calls() {
		if _, path, _ := strings.Cut(c, " "); strings.HasPrefix(path, prefix) {
			n++
		}
	}
	return n
}

// LastAuthorization returns the Authorization header last sent to path.
func (b *StubBackend) LastAuthorization(path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuth[path]
}

// Revoke invalidates a previously issued token.
func (b *StubBackend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

func (b *StubBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, r.Method+" "+r.URL.Path)
		b.lastAuth[r.URL.Path] = r.Header.Get("Authorization")
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *StubBackend) login(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeStubJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
			return
		}

		b.mu.Lock()
		acct, ok := b.accounts[in.Email]
		b.mu.Unlock()

		if !ok || acct.Password != in.Password {
			if admin {
				writeStubJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Incorrect email or password"})
			} else {
				writeStubJSON(w, http.StatusUnauthorized, map[string]any{"error": "Incorrect email or password"})
			}
			return
		}
		if admin && acct.UserType != "admin" && acct.UserType != "store_staff" {
			writeStubJSON(w, http.StatusForbidden, map[string]any{"detail": "Not enough privileges"})
			return
		}

		kind := "user"
		if admin {
			kind = "admin"
		}
		token := fmt.Sprintf("%s-token-%d", kind, acct.ID)

		b.mu.Lock()
		b.tokens[token] = stubSession{email: acct.Email, admin: admin}
		b.mu.Unlock()

		resp := map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"user":         stubUser(acct, "id"),
		}
		if admin {
			resp["permissions"] = stubPermissions(acct)
		}
		writeStubJSON(w, http.StatusOK, resp)
	}
}

func (b *StubBackend) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
		UserType string `json:"user_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeStubJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[in.Email]; exists {
		writeStubJSON(w, http.StatusBadRequest, map[string]any{"error": "Email already registered"})
		return
	}
	acct := StubAccount{
		ID:       int64(len(b.accounts) + 100),
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		UserType: in.UserType,
	}
	b.accounts[in.Email] = acct
	writeStubJSON(w, http.StatusCreated, stubUser(acct, "id"))
}

func (b *StubBackend) verify(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, sess, ok := b.bearer(r)
		if !ok || sess.admin != admin {
			writeStubJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Could not validate credentials"})
			return
		}

		resp := map[string]any{
			"valid": true,
			"user":  stubUser(acct, b.VerifyIDField),
		}
		if admin {
			resp["permissions"] = stubPermissions(acct)
		}
		writeStubJSON(w, http.StatusOK, resp)
	}
}

func (b *StubBackend) catalog(resource string, adminOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess, authed := b.bearer(r)
		mutating := r.Method != http.MethodGet && r.Method != http.MethodHead
		if (adminOnly || mutating) && (!authed || !sess.admin) {
			writeStubJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/api/v1/"+resource+"/")
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case id == "" && r.Method == http.MethodGet:
			writeStubJSON(w, http.StatusOK, map[string]any{
				"items": []any{map[string]any{"id": 1, "name": resource + "-1"}},
				"query": r.URL.RawQuery,
			})
		case id == "" && r.Method == http.MethodPost:
			body := map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			body["id"] = 2
			writeStubJSON(w, http.StatusCreated, body)
		default:
			writeStubJSON(w, http.StatusOK, map[string]any{"id": id, "resource": resource, "method": r.Method})
		}
	}
}

func (b *StubBackend) bearer(r *http.Request) (StubAccount, stubSession, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return StubAccount{}, stubSession{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sess, ok := b.tokens[token]
	if !ok {
		return StubAccount{}, stubSession{}, false
	}
	acct, ok := b.accounts[sess.email]
	return acct, sess, ok
}

func stubUser(a StubAccount, idField string) map[string]any {
	if idField == "" {
		idField = "id"
	}
	return map[string]any{
		idField:      a.ID,
		"username":   a.Username,
		"email":      a.Email,
		"user_type":  a.UserType,
		"is_active":  true,
		"last_login": "2026-01-15T09:30:00",
	}
}

func stubPermissions(a StubAccount) []string {
	if a.Permissions == nil {
		return []string{}
	}
	return a.Permissions
}

func writeStubJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
