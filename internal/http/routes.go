package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	"github.com/mydrops/storefront-edge/internal/observability/metrics"
	"github.com/mydrops/storefront-edge/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthServiceInterface
	Forwarder ports.Forwarder
	Cookies   *SessionCookies
	// Renderer is optional; without it only the API surface is served.
	Renderer *TemplateRenderer
	// Metrics is optional; a nil recorder disables /metrics and request counters.
	Metrics     *metrics.Recorder
	MetricsPath string
	// ReadinessChecks back GET /readyz. Empty means always ready.
	ReadinessChecks map[string]ReadinessCheck
	Logger          *slog.Logger
}

// NewRouter creates the HTTP handler: every request is recovered, tagged with a
// request ID, logged, and passed through the route guard before routing.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookies := services.Cookies
	if cookies == nil {
		cookies = NewSessionCookies(CookieOptions{})
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.ReadinessChecks))
	if services.Metrics != nil && services.MetricsPath != "" {
		mux.Handle("GET "+services.MetricsPath, services.Metrics.Handler())
	}

	registerAuthRoutes(mux, &AuthHandlers{Svc: services.Auth, Cookies: cookies, Logger: logger})
	if services.Forwarder != nil {
		registerCatalogRoutes(mux, &CatalogProxy{Forwarder: services.Forwarder, Cookies: cookies, Logger: logger})
	}
	if services.Renderer != nil {
		registerPageRoutes(mux, &PageHandlers{
			Svc:      services.Auth,
			Cookies:  cookies,
			Renderer: services.Renderer,
			Logger:   logger,
		})
	}

	return Chain(mux,
		Recover(logger),
		RequestID(),
		Logging(logger, services.Metrics),
		RouteGuard(cookies, services.Metrics),
	)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("POST /api/auth/verify", h.Verify)
	mux.HandleFunc("POST /api/auth/admin/login", h.AdminLogin)
	mux.HandleFunc("POST /api/auth/admin/verify", h.AdminVerify)
	mux.HandleFunc("POST /api/auth/admin/logout", h.AdminLogout)
	mux.HandleFunc("GET /api/auth/session", h.Session)
}

type crudRoutes struct {
	base       string
	res        proxyResource
	collection []string
	item       []string
}

func registerCRUD(mux *http.ServeMux, p *CatalogProxy, cfg crudRoutes) {
	for _, m := range cfg.collection {
		mux.Handle(m+" "+cfg.base, p.Collection(cfg.res))
	}
	for _, m := range cfg.item {
		mux.Handle(m+" "+cfg.base+"/{id}", p.Item(cfg.res))
	}
}

func registerCatalogRoutes(mux *http.ServeMux, p *CatalogProxy) {
	registerCRUD(mux, p, crudRoutes{
		base:       "/api/products",
		res:        productsResource,
		collection: []string{http.MethodGet, http.MethodPost},
		item:       []string{http.MethodGet, http.MethodPut, http.MethodDelete},
	})
	registerCRUD(mux, p, crudRoutes{
		base:       "/api/categories",
		res:        categoriesResource,
		collection: []string{http.MethodGet, http.MethodPost},
		item:       []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete},
	})
	registerCRUD(mux, p, crudRoutes{
		base:       "/api/users",
		res:        usersResource,
		collection: []string{http.MethodGet},
		item:       []string{http.MethodGet},
	})
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers) {
	mux.HandleFunc("GET /{$}", h.Landing)
	mux.HandleFunc("GET /auth/login", h.UserLogin)
	mux.HandleFunc("GET /auth/register", h.Register)
	mux.HandleFunc("GET /home", h.Home)
	mux.HandleFunc("GET /admin/login", h.AdminLogin)
	mux.HandleFunc("GET /admin", h.Dashboard)
	mux.HandleFunc("GET /admin/{$}", h.Dashboard)
	mux.Handle("GET /admin/database/products",
		h.AdminResource(domainauth.PageProducts, "Products", "products"))
	mux.Handle("GET /admin/database/categories",
		h.AdminResource(domainauth.PageCategories, "Categories", "categories"))
	mux.Handle("GET /admin/database/users",
		h.AdminResource(domainauth.PageUsers, "Users", "users"))
	mux.HandleFunc("GET /admin/{section...}", h.AdminSection)
}
