package http

import (
	"encoding/json"
	"net/http"

	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/service"
	"github.com/castellan/castellan/pkg/httpx"
	"github.com/castellan/castellan/pkg/slogx"
)

type AccountsHandler struct {
	AccountService *service.AccountService
	Assembler      *service.Assembler
}

func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.AccountService.List(r.Context())
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}

	out := accountListResponse{Accounts: make([]accountResponse, len(res.Instance()))}
	for i, a := range res.Instance() {
		out.Accounts[i] = toAccountResponse(a)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.AccountService.FindByID(r.Context(), r.PathValue("id"))
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(res.Instance()))
}

func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	roles, err := h.Assembler.AssembleRoles(r.Context(), req.Roles)
	if err != nil {
		writeAssemblyFailure(w, r, err)
		return
	}

	res := h.AccountService.Create(r.Context(), domain.Account{
		Username: req.Username,
		Locked:   req.Locked,
		Roles:    roles,
	}, req.Password)
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAccountResponse(res.Instance()))
}

func (h *AccountsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	roles, err := h.Assembler.AssembleRoles(r.Context(), req.Roles)
	if err != nil {
		writeAssemblyFailure(w, r, err)
		return
	}

	res := h.AccountService.Update(r.Context(), domain.Account{
		ID:       r.PathValue("id"),
		Username: req.Username,
		Locked:   req.Locked,
		Roles:    roles,
	})
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(res.Instance()))
}

func (h *AccountsHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	res := h.AccountService.UpdatePassword(r.Context(),
		r.PathValue("id"), req.CurrentPassword, req.NewPassword)
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := h.AccountService.Delete(r.Context(), domain.Account{ID: r.PathValue("id")})
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeAssemblyFailure(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("reference assembly failed", "error", err)
	httpx.WriteJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "server_error",
	})
}
