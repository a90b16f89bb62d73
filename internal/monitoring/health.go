package monitoring

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-volley/internal/metrics"
)

// Status is what the fuzz orchestrator exposes to the health endpoint.
type Status interface {
	State() string
	Iterations() uint64
}

// HealthStatus is the /healthz response body.
type HealthStatus struct {
	Status     string  `json:"status"`
	State      string  `json:"state"`
	Iterations uint64  `json:"iterations"`
	UptimeSecs float64 `json:"uptime_secs"`
	GoVersion  string  `json:"go_version"`
	Goroutines int     `json:"goroutines"`
}

type HealthHandler struct {
	status Status
	start  time.Time
}

func NewHealthHandler(status Status) *HealthHandler {
	return &HealthHandler{status: status, start: time.Now()}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthStatus{
		Status:     "ok",
		State:      h.status.State(),
		Iterations: h.status.Iterations(),
		UptimeSecs: time.Since(h.start).Seconds(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
	}
	// Iteration counter from the metrics package wins if it is ahead; the
	// orchestrator updates its own copy after the metrics bump.
	if n := metrics.TotalIterations(); n > resp.Iterations {
		resp.Iterations = n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Register wires /healthz and /metrics onto the mux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.Handle("/healthz", h)
	mux.Handle("/metrics", promhttp.Handler())
}
