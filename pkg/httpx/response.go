package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/castellan/castellan/pkg/result"
)

// ErrorsResponse is the JSON body returned for a rejected Result. Every
// violation found is reported, in rule order.
type ErrorsResponse struct {
	Errors []result.Error `json:"errors"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrors writes a rejected Result's errors, deriving the status code
// from the first error's kind (422/409/404/500).
func WriteErrors(w http.ResponseWriter, errs []result.Error) {
	code := http.StatusInternalServerError
	if len(errs) > 0 {
		code = errs[0].Kind.HTTPStatus()
	}
	WriteJSON(w, code, ErrorsResponse{Errors: errs})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like client secrets.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
