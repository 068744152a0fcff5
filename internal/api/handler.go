package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larsmaeder/homerules/internal/config"
	"github.com/larsmaeder/homerules/internal/engine"
	"github.com/larsmaeder/homerules/internal/event"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.injectEvent)
	h.mux.HandleFunc("GET /v1/automations", h.listAutomations)
	h.mux.HandleFunc("POST /v1/automations/reload", h.reload)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events — synchronous state-change injection, mainly for testing
// automations without driving the real devices.
func (h *Handler) injectEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.StateChange
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if ev.Entity == "" {
		writeError(w, http.StatusBadRequest, "entity is required")
		return
	}
	ev.ReceivedAt = time.Now()

	res := h.eng.Process(ev)
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/automations — list the loaded configuration.
func (h *Handler) listAutomations(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     cfg.Version,
		"automations": cfg.Automations,
	})
}

// POST /v1/automations/reload — re-read the config file. The registered
// OnChange callbacks rebuild and swap the rule store.
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":    true,
		"automations": len(cfg.Automations),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 once the engine has stopped.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if !h.eng.Running() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "stopped"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
