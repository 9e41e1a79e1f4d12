package http

import (
	"net/http"
	"time"

	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/pkg/httpx"
)

// LivezHandler reports that the process is up. Always 200 while serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler additionally checks database connectivity.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := healthResponse{
			Status:   "ok",
			Uptime:   time.Since(startTime).String(),
			Version:  version,
			Database: "ok",
		}
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "error: " + err.Error()
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, response)
	}
}
