package handler

import (
	"net/http"

	"github.com/mcoot/partyrooms/internal/api/response"
)

// HealthHandler reports liveness plus a couple of gauges
type HealthHandler struct {
	storageType string
	connections func() int
}

// NewHealthHandler creates a new health handler. connections may be nil.
func NewHealthHandler(storageType string, connections func() int) *HealthHandler {
	return &HealthHandler{storageType: storageType, connections: connections}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.HealthResponse{Status: "ok", Storage: h.storageType}
	if h.connections != nil {
		resp.Connections = h.connections()
	}
	response.JSON(w, http.StatusOK, resp)
}
