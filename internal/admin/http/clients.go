package http

import (
	"encoding/json"
	"net/http"

	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/service"
	"github.com/castellan/castellan/pkg/httpx"
)

type ClientsHandler struct {
	ClientService *service.ClientService
	Assembler     *service.Assembler
}

func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.ClientService.List(r.Context())
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}

	out := clientListResponse{Clients: make([]clientResponse, len(res.Instance()))}
	for i, c := range res.Instance() {
		out.Clients[i] = toClientResponse(c)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.ClientService.FindByID(r.Context(), r.PathValue("id"))
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toClientResponse(res.Instance()))
}

func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	client, err := h.assemble(r, req)
	if err != nil {
		writeAssemblyFailure(w, r, err)
		return
	}

	res, secret := h.ClientService.Create(r.Context(), client, req.Secret)
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}

	// The plaintext secret appears in this response and nowhere else.
	out := toClientResponse(res.Instance())
	out.Secret = secret
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	client, err := h.assemble(r, req)
	if err != nil {
		writeAssemblyFailure(w, r, err)
		return
	}
	client.ID = r.PathValue("id")

	res := h.ClientService.Update(r.Context(), client)
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toClientResponse(res.Instance()))
}

func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := h.ClientService.Delete(r.Context(), domain.Client{ID: r.PathValue("id")})
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClientsHandler) assemble(r *http.Request, req clientRequest) (domain.Client, error) {
	return h.Assembler.AssembleClient(r.Context(), domain.Client{
		ClientID:                    req.ClientID,
		RedirectURI:                 req.RedirectURI,
		AccessTokenValiditySeconds:  req.AccessTokenValiditySeconds,
		RefreshTokenValiditySeconds: req.RefreshTokenValiditySeconds,
	}, req.Audiences, req.Scopes, req.GrantTypes, req.Authorities)
}
