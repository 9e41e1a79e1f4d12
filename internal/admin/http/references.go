package http

import (
	"encoding/json"
	"net/http"

	"github.com/castellan/castellan/internal/admin/domain"
	"github.com/castellan/castellan/internal/admin/service"
	"github.com/castellan/castellan/pkg/httpx"
)

// ReferencesHandler serves the CRUD surface for one reference kind. The
// five kinds register one instance each under their own path segment.
type ReferencesHandler struct {
	Service *service.ReferenceService
}

func (h *ReferencesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Service.List(r.Context())
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, referenceListResponse{
		References: toReferenceResponses(res.Instance()),
	})
}

func (h *ReferencesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.Service.FindByID(r.Context(), r.PathValue("id"))
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toReferenceResponse(res.Instance()))
}

func (h *ReferencesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	res := h.Service.Create(r.Context(), domain.Reference{
		Name:        req.Name,
		Description: req.Description,
	})
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toReferenceResponse(res.Instance()))
}

func (h *ReferencesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	res := h.Service.Update(r.Context(), domain.Reference{
		ID:          r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
	})
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toReferenceResponse(res.Instance()))
}

func (h *ReferencesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := h.Service.Delete(r.Context(), domain.Reference{ID: r.PathValue("id")})
	if res.Rejected() {
		httpx.WriteErrors(w, res.Errors())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeBadRequest(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusBadRequest, errorResponse{
		Error:            "invalid_request",
		ErrorDescription: "The request body could not be parsed.",
	})
}
