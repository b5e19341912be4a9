package handler

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health reports liveness. When a record database is configured it must
// answer a ping; the detail stays in the log.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "unhealthy",
				Message: "record database unreachable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Message: "Northfield intake API",
	})
}
