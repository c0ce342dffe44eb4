package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/djdiptayan1/trackmoji/internal/api/middleware"
)

const dependencyProbeTimeout = 2 * time.Second

// Pinger checks that an external dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process, database and model-service status.
type HealthHandler struct {
	db      Pinger
	model   Pinger
	log     zerolog.Logger
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db, model Pinger, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{db: db, model: model, log: log, started: time.Now()}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Check handles GET /api/health. It always answers 200; degraded
// dependencies are reported in the body.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	db := h.probe(r.Context(), h.db)
	model := h.probe(r.Context(), h.model)

	status := "healthy"
	if db.Status != "up" || model.Status != "up" {
		status = "degraded"
	}

	middleware.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"status":        status,
		"time":          time.Now().Format(time.RFC3339),
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"system": map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"allocBytes": memStats.Alloc,
			"numCPU":     runtime.NumCPU(),
			"goVersion":  runtime.Version(),
		},
		"database": db,
		"model":    model,
	})
}

func (h *HealthHandler) probe(ctx context.Context, dep Pinger) dependencyStatus {
	if dep == nil {
		return dependencyStatus{Status: "unconfigured"}
	}

	ctx, cancel := context.WithTimeout(ctx, dependencyProbeTimeout)
	defer cancel()

	if err := dep.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Health probe failed")
		return dependencyStatus{Status: "down", Error: err.Error()}
	}
	return dependencyStatus{Status: "up"}
}
