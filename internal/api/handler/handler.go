// Package handler provides HTTP handlers for all API endpoints: the
// inbound telemetry surface, per-pet reads, and health checks.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kohizeri/smartcollar-api/internal/alert"
	"github.com/kohizeri/smartcollar-api/internal/api/respond"
	"github.com/kohizeri/smartcollar-api/internal/store"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store     store.Store
	evaluator *alert.Evaluator
	dbPing    Pinger
	redisPing Pinger
}

// New creates a Handler with shared dependencies. Pingers may be nil when
// the corresponding backend is not wired (tests).
func New(st store.Store, evaluator *alert.Evaluator, dbPing, redisPing Pinger) *Handler {
	return &Handler{
		store:     st,
		evaluator: evaluator,
		dbPing:    dbPing,
		redisPing: redisPing,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "SmartCollar API",
		"status":  "running",
		"version": "2.0.0",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	h.healthCheckBackend(w, r, "database", h.dbPing)
}

// HealthCheckRedis verifies cooldown-store connectivity.
func (h *Handler) HealthCheckRedis(w http.ResponseWriter, r *http.Request) {
	h.healthCheckBackend(w, r, "redis", h.redisPing)
}

func (h *Handler) healthCheckBackend(w http.ResponseWriter, r *http.Request, name string, ping Pinger) {
	if ping == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", name+" is not configured")
		return
	}
	if err := ping(r.Context()); err != nil {
		respond.WriteErrorDetail(w, http.StatusServiceUnavailable, "UNHEALTHY", name+" is unreachable", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"backend": name,
	})
}
