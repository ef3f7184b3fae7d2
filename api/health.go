package api

import (
	"net/http"

	"github.com/stockchat/stockchat/internal/log"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	prober ReadinessProber
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
// prober is used for readiness checks against the language model.
func NewHealthHandler(prober ReadinessProber, logger log.Logger) *HealthHandler {
	return &HealthHandler{prober: prober, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint.
// Returns 200 OK if the configured model is available. The service still
// answers queries without the model (keyword fallback), so readiness here
// signals full capability, not liveness.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		http.Error(w, "model prober not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.prober.Probe(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "model not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
