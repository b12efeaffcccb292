package handler

import (
	"net/http"

	"inkwell/internal/httputil"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	pool *pgxpool.Pool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(pool *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// HealthCheck responds 200 when the database answers a ping
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(r.Context()); err != nil {
		httputil.RespondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"db":     "unreachable",
		})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
