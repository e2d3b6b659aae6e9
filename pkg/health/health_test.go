package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func getStatus(t *testing.T, endpoint http.HandlerFunc) (int, statusResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing())
	h.AddLivenessCheck("gc", time.Second, passing())

	code, body := getStatus(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestLiveEndpoint_FailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))
	p := h.liveness[0]
	ctx := context.Background()

	// Below the threshold the probe still reports healthy.
	p.observe(ctx)
	p.observe(ctx)
	code, _ := getStatus(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)

	// The third consecutive failure flips it.
	p.observe(ctx)
	code, body := getStatus(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestReadyEndpoint_ManualGate(t *testing.T) {
	h := New()
	h.AddReadinessCheck("cache", time.Second, passing())

	// Not ready until SetReady(true).
	code, body := getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "_readiness")

	h.SetReady(true)
	code, body = getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	// Draining closes the gate again.
	h.SetReady(false)
	code, _ = getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpoint_OneFailingProbe(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, passing())
	h.AddReadinessCheck("cache", time.Second, failing("cache down"))
	h.SetReady(true)

	ctx := context.Background()
	for range failureThreshold {
		h.readiness[1].observe(ctx)
	}

	code, body := getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "cache")
	assert.NotContains(t, body.Checks, "db")
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, passing())

	assert.False(t, h.IsReady(), "not ready before SetReady")

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestProbeRecovery(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	p := h.liveness[0]
	ctx := context.Background()

	for range failureThreshold {
		p.observe(ctx)
	}
	assert.False(t, p.isHealthy())

	down = false
	p.observe(ctx)
	assert.True(t, p.isHealthy(), "one pass should recover with successThreshold=1")
}

func TestProbeLastError(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("timeout"))
	p := h.liveness[0]

	assert.Nil(t, p.lastError())

	p.observe(context.Background())
	assert.EqualError(t, p.lastError(), "timeout")
}

func TestStopIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing())

	h.Start(context.Background(), 100*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestEndpoints_NoProbes(t *testing.T) {
	h := New()

	code, body := getStatus(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.SetReady(true)
	code, _ = getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, failing("err"))
	h.AddReadinessCheck("ready", time.Second, passing())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()

				w := httptest.NewRecorder()
				h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

				w = httptest.NewRecorder()
				h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
