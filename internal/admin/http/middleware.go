package http

import (
	"net/http"
	"slices"

	"github.com/castellan/castellan/internal/admin/service"
	"github.com/castellan/castellan/pkg/httpx"
	"github.com/castellan/castellan/pkg/slogx"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// BasicAuthMiddleware authenticates the request with HTTP Basic client
// credentials against the client authentication service. Unknown clients
// and wrong secrets get the same challenge.
func BasicAuthMiddleware(auth *service.ClientAuthenticationService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, secret, ok := r.BasicAuth()
			if !ok {
				challenge(w)
				return
			}

			client, err := auth.Authenticate(r.Context(), clientID, secret)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("client authentication failed", "client_id", clientID)
				challenge(w)
				return
			}

			authorities := make([]string, 0, len(client.Authorities))
			for _, a := range client.Authorities {
				authorities = append(authorities, a.Name)
			}

			ctx := httpx.WithClient(r.Context(), client.ClientID, authorities)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthority rejects authenticated requests whose client lacks the
// named authority.
func RequireAuthority(name string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(httpx.AuthoritiesFromCtx(r.Context()), name) {
				httpx.WriteJSON(w, http.StatusForbidden, errorResponse{
					Error:            "insufficient_authority",
					ErrorDescription: "The " + name + " authority is required.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="castellan"`)
	httpx.WriteJSON(w, http.StatusUnauthorized, errorResponse{
		Error: "invalid_client",
	})
}
