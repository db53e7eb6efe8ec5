package httpx

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/mydrops/storefront-edge/internal/errors"
	"github.com/mydrops/storefront-edge/internal/ports"
)

// proxyResource describes one backend collection exposed on the same origin.
type proxyResource struct {
	// backendPath is the collection path with trailing slash, e.g. "/api/v1/products/".
	backendPath string
	// query lists the query parameters relayed to the backend; others are dropped.
	query []string
	// adminReads requires the admin token for reads as well as writes.
	adminReads bool
}

var (
	productsResource = proxyResource{
		backendPath: "/api/v1/products/",
		query:       []string{"skip", "limit", "name", "is_active", "category_id"},
	}
	categoriesResource = proxyResource{
		backendPath: "/api/v1/categories/",
		query:       []string{"skip", "limit", "name", "is_active", "parent_category_id"},
	}
	usersResource = proxyResource{
		backendPath: "/api/v1/users/",
		query:       []string{"page", "items_per_page"},
		adminReads:  true,
	}
)

// CatalogProxy relays catalog and user-management calls to the backend with the
// admin bearer token attached. The backend makes every authorization decision;
// the proxy only refuses to send anonymous mutations.
type CatalogProxy struct {
	Forwarder ports.Forwarder
	Cookies   *SessionCookies
	Logger    *slog.Logger
}

func (p *CatalogProxy) logger() *slog.Logger {
	if p != nil && p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Collection handles list and create requests for res.
func (p *CatalogProxy) Collection(res proxyResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.forward(w, r, res, res.backendPath)
	}
}

// Item handles requests for a single record of res identified by {id}.
func (p *CatalogProxy) Item(res proxyResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			WriteAppError(w, apperrors.ValidationField("id", "id must be a positive integer"))
			return
		}
		p.forward(w, r, res, res.backendPath+strconv.FormatInt(id, 10))
	}
}

func (p *CatalogProxy) forward(w http.ResponseWriter, r *http.Request, res proxyResource, path string) {
	token := p.Cookies.AdminToken(r)
	mutating := r.Method != http.MethodGet && r.Method != http.MethodHead
	if token == "" && (mutating || res.adminReads) {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "unauthenticated", Message: "Unauthorized"})
		return
	}

	req := ports.ForwardRequest{
		Method: r.Method,
		Path:   path,
		Query:  filterQuery(r.URL.Query(), res.query),
		Token:  token,
	}
	if mutating && r.Method != http.MethodDelete {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Message: "Request body too large"})
			return
		}
		req.Body = bytesReader(body)
	}

	resp, err := p.Forwarder.Forward(r.Context(), req)
	if err != nil {
		p.logger().ErrorContext(r.Context(), "catalog proxy failed",
			"method", r.Method, "path", path, "error", err)
		WriteAppError(w, err)
		return
	}

	if r.Method == http.MethodDelete && resp.Status >= 200 && resp.Status < 300 {
		WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	relay(w, resp)
}

func filterQuery(in url.Values, allowed []string) url.Values {
	out := url.Values{}
	for _, k := range allowed {
		if v := in.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// bytesReader returns nil for an empty body so no Content-Type is sent.
func bytesReader(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}

func relay(w http.ResponseWriter, resp ports.ForwardResponse) {
	for _, h := range []string{"Content-Type", "X-Total-Count"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
