//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := doGet(t, path)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			body := decodeJSON[healthResponse](t, resp)
			if body.Status != "ok" {
				t.Fatalf("expected status ok, got %q", body.Status)
			}
			// The checks map only carries failing probes.
			if len(body.Checks) != 0 {
				t.Errorf("expected no failing checks, got %v", body.Checks)
			}
		})
	}
}
