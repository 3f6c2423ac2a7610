package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/JayRKay91/photo-share-app-v3/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	KnownFiles    int    `json:"knownFiles"`
	LastReconcile string `json:"lastReconcile,omitempty"`
	ReconcileErr  string `json:"reconcileError,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		KnownFiles:   len(h.store.Keys()),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if h.reconciler != nil {
		lastRun, lastErr := h.reconciler.LastRun()
		if !lastRun.IsZero() {
			response.LastReconcile = lastRun.Format(time.RFC3339)
		}
		if lastErr != nil {
			response.Status = statusDegraded
			response.ReconcileErr = lastErr.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// LivenessCheck reports that the process is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "ok"})
}

// ReadinessCheck reports whether the service can serve traffic. The
// store loads synchronously at startup, so readiness follows liveness.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "ready"})
}

// GetVersion returns the application version and build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
