package handlers

import (
	"net/http"
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/api/middleware"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "banking-profile"

// Health handles GET /health
func Health(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"service": ServiceName,
			"ts":      now().Format(time.RFC3339),
		})
	}
}
