//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
)

// doGetWithHeaders issues a GET with extra request headers set.
func doGetWithHeaders(t *testing.T, path string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestRequestID(t *testing.T) {
	t.Run("generated when absent", func(t *testing.T) {
		resp := doGet(t, "/livez")
		defer resp.Body.Close()

		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatal("X-Request-ID header not present")
		}
	})

	t.Run("caller value echoed back", func(t *testing.T) {
		const id = "busy-checkout-retry-7f3a"

		resp := doGetWithHeaders(t, "/livez", map[string]string{"X-Request-ID": id})
		defer resp.Body.Close()

		if got := resp.Header.Get("X-Request-ID"); got != id {
			t.Errorf("X-Request-ID: got %q, want %q", got, id)
		}
	})
}

func TestCORS_Preflight(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, baseURL+"/api/products", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Origin", "https://busy.ar")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	for _, h := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods"} {
		if resp.Header.Get(h) == "" {
			t.Errorf("%s header not present", h)
		}
	}
}

func TestCORS_SimpleRequest(t *testing.T) {
	resp := doGetWithHeaders(t, "/api/products", map[string]string{"Origin": "https://busy.ar"})
	defer resp.Body.Close()

	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("Access-Control-Allow-Origin header not present")
	}
}

func TestRateLimit_HeadersExposed(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.Header.Get("X-RateLimit-Limit") == "" {
		t.Error("X-RateLimit-Limit header not present")
	}
	if resp.Header.Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining header not present")
	}
}

func TestRateLimit_SkipsHealthEndpoints(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()

	if resp.Header.Get("X-RateLimit-Limit") != "" {
		t.Error("health endpoints should not be rate limited")
	}
}
