package handler

import (
	"context"
	"net/http"

	"github.com/forkful/forkful/internal/api/middleware"
	"github.com/forkful/forkful/internal/api/response"
)

// DBPinger verifies database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// HealthHandler reports service and database health.
type HealthHandler struct {
	pinger  DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pinger DBPinger, version string) *HealthHandler {
	return &HealthHandler{pinger: pinger, version: version}
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	resp := healthResponse{Status: "ok", Version: h.version, Database: "ok"}
	status := http.StatusOK

	if h.pinger == nil || h.pinger.Ping(r.Context()) != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	response.Success(w, status, resp, requestID)
}
