package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/service"
	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/pkg/httpx"
	"github.com/castellan/castellan/pkg/slogx"
)

// Authority names the admin surface checks. Reads need ReadAuthority,
// mutations need WriteAuthority.
const (
	ReadAuthority  = "admin:read"
	WriteAuthority = "admin:write"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	ReferenceServices     map[domain.Kind]*service.ReferenceService
	AccountService        *service.AccountService
	ClientService         *service.ClientService
	AuthenticationService *service.ClientAuthenticationService
	Assembler             *service.Assembler
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerReferences()
	r.registerAccounts()
	r.registerClients()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secureRead wraps a handler with basic auth, the read authority and a
// lenient per-client rate limit.
func (r *Router) secureRead(h http.Handler) http.Handler {
	return httpx.Chain(h,
		BasicAuthMiddleware(r.AuthenticationService),
		RequireAuthority(ReadAuthority),
		httpx.RateLimitByClient(httpx.LenientLimit),
	)
}

// secureWrite wraps a handler with basic auth, the write authority and a
// moderate per-client rate limit.
func (r *Router) secureWrite(h http.Handler) http.Handler {
	return httpx.Chain(h,
		BasicAuthMiddleware(r.AuthenticationService),
		RequireAuthority(WriteAuthority),
		httpx.RateLimitByClient(httpx.ModerateLimit),
	)
}

// pathSegment maps a reference kind to its URL collection name.
func pathSegment(kind domain.Kind) string {
	if kind == domain.KindAuthority {
		return "authorities"
	}
	return string(kind) + "s"
}

func (r *Router) registerReferences() {
	for kind, svc := range r.ReferenceServices {
		h := &ReferencesHandler{Service: svc}
		base := "/v1/" + pathSegment(kind)

		r.Mux.Handle("GET "+base, r.secureRead(http.HandlerFunc(h.HandleList)))
		r.Mux.Handle("GET "+base+"/{id}", r.secureRead(http.HandlerFunc(h.HandleGet)))
		r.Mux.Handle("POST "+base, r.secureWrite(http.HandlerFunc(h.HandleCreate)))
		r.Mux.Handle("PUT "+base+"/{id}", r.secureWrite(http.HandlerFunc(h.HandleUpdate)))
		r.Mux.Handle("DELETE "+base+"/{id}", r.secureWrite(http.HandlerFunc(h.HandleDelete)))
	}
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{
		AccountService: r.AccountService,
		Assembler:      r.Assembler,
	}

	r.Mux.Handle("GET /v1/accounts", r.secureRead(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /v1/accounts/{id}", r.secureRead(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("POST /v1/accounts", r.secureWrite(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("PUT /v1/accounts/{id}", r.secureWrite(http.HandlerFunc(h.HandleUpdate)))
	r.Mux.Handle("PUT /v1/accounts/{id}/password", r.secureWrite(http.HandlerFunc(h.HandleUpdatePassword)))
	r.Mux.Handle("DELETE /v1/accounts/{id}", r.secureWrite(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerClients() {
	h := &ClientsHandler{
		ClientService: r.ClientService,
		Assembler:     r.Assembler,
	}

	r.Mux.Handle("GET /v1/clients", r.secureRead(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /v1/clients/{id}", r.secureRead(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("POST /v1/clients", r.secureWrite(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("PUT /v1/clients/{id}", r.secureWrite(http.HandlerFunc(h.HandleUpdate)))
	r.Mux.Handle("DELETE /v1/clients/{id}", r.secureWrite(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
