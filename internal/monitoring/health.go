package monitoring

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// staleFactor is how many missed intervals make a loop unhealthy
const staleFactor = 3

type loopState struct {
	interval  time.Duration
	lastRun   time.Time
	lastError string
}

type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	loops     map[string]*loopState
	now       func() time.Time
}

type LoopStatus struct {
	Name      string    `json:"name"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
	Stale     bool      `json:"stale"`
}

type HealthStatus struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    string       `json:"uptime"`
	Loops     []LoopStatus `json:"loops"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		loops:     make(map[string]*loopState),
		now:       time.Now,
	}
}

// Register declares a loop and its expected interval
func (h *HealthChecker) Register(loop string, interval time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loops[loop] = &loopState{interval: interval}
}

// RecordCycle marks a loop cycle as done. A nil err clears the last error.
func (h *HealthChecker) RecordCycle(loop string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.loops[loop]
	if !ok {
		s = &loopState{}
		h.loops[loop] = s
	}
	s.lastRun = h.now()
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

// Uptime returns the time since the checker was created
func (h *HealthChecker) Uptime() time.Duration {
	return h.now().Sub(h.startTime)
}

// Status reports "healthy", "degraded" when a loop last failed, or
// "unhealthy" when a loop has not run for several intervals
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: now,
		Uptime:    now.Sub(h.startTime).Round(time.Second).String(),
	}

	names := make([]string, 0, len(h.loops))
	for name := range h.loops {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := h.loops[name]
		ls := LoopStatus{Name: name, LastRun: s.lastRun, LastError: s.lastError}

		since := now.Sub(s.lastRun)
		if s.lastRun.IsZero() {
			since = now.Sub(h.startTime)
		}
		if s.interval > 0 && since > staleFactor*s.interval {
			ls.Stale = true
			status.Status = "unhealthy"
		} else if s.lastError != "" && status.Status == "healthy" {
			status.Status = "degraded"
		}
		status.Loops = append(status.Loops, ls)
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// NewServer returns an http.Server exposing /metrics and /health
func NewServer(addr string, health *HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.Handle("/health", health)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
