// Package health implements liveness and readiness probes in the Kubernetes
// style. Probes run on their own tickers and use consecutive-failure and
// consecutive-success thresholds so a single blip never flips the reported
// state.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component. Nil means healthy.
type CheckFunc func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

// probe is one registered check plus its runtime state. observe() runs from a
// single goroutine, so the streak counters need no locking; healthy and
// lastErr are shared with HTTP handlers and use atomics.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	failStreak int
	passStreak int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true) // healthy until a full failure streak says otherwise
	return p
}

func (p *probe) isHealthy() bool {
	return p.healthy.Load()
}

func (p *probe) lastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// observe runs the check once and applies the thresholds. Single-goroutine
// only.
func (p *probe) observe(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(checkCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passStreak = 0
		p.failStreak++
		if p.failStreak >= failureThreshold {
			p.healthy.Store(false)
		}
		return
	}

	p.failStreak = 0
	p.passStreak++
	if p.passStreak >= successThreshold {
		p.healthy.Store(true)
	}
}

// loop re-runs the probe until ctx is cancelled, starting with an immediate
// observation.
func (p *probe) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.observe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.observe(ctx)
		}
	}
}

// Health holds a service's probes. The zero value is not ready; call
// SetReady(true) after initialization and SetReady(false) to drain.
type Health struct {
	ready atomic.Bool

	// mu guards the probe slices and cancel. Registration happens before
	// Start; handlers only snapshot the slices.
	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns an empty, not-ready Health.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe for process health (goroutine counts,
// GC pauses). A failing liveness probe means the process should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe for traffic-serving dependencies
// (database, cache). A failing readiness probe takes the instance out of
// rotation without restarting it.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

// Start launches one goroutine per registered probe, each ticking at
// interval. Register all probes before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go p.loop(ctx, interval)
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Graceful shutdown calls
// SetReady(false) first so load balancers stop sending traffic before the
// listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	probes := h.readiness
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.isHealthy() {
			return false
		}
	}
	return true
}

// statusResponse is the JSON body for both probe endpoints.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while liveness probes
// pass, 503 with per-check failures otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.liveness))
	copy(probes, h.liveness)
	h.mu.RUnlock()

	writeStatus(w, failingProbes(probes))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// all readiness probes pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	probes := make([]*probe, len(h.readiness))
	copy(probes, h.readiness)
	h.mu.RUnlock()

	failures := failingProbes(probes)
	if !ready {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// failingProbes maps probe name to last error message for every unhealthy
// probe, using the stored result rather than re-running checks.
func failingProbes(probes []*probe) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if p.isHealthy() {
			continue
		}
		if err := p.lastError(); err != nil {
			failures[p.name] = err.Error()
		} else {
			failures[p.name] = "check is unhealthy"
		}
	}
	return failures
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK

	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)

	// The status code is already committed; an encode failure here means
	// the client went away.
	_ = json.NewEncoder(w).Encode(resp)
}
