//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// The probe endpoints sit outside the authenticated /api surface so an
// orchestrator can poll them without an API key.

func TestLivez(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q, want application/json", ct)
	}

	body := decodeJSON[healthResponse](t, resp)
	if body.Status != "ok" {
		t.Fatalf("liveness status: got %q, want ok", body.Status)
	}
}

func TestReadyz_DatabaseReachable(t *testing.T) {
	// Readiness includes the Postgres ping, so a 200 here means the pool
	// inside the container is actually serving queries.
	resp := doGet(t, "/readyz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[healthResponse](t, resp)
	if body.Status != "ok" {
		t.Fatalf("readiness status: got %q, want ok", body.Status)
	}
	if len(body.Checks) != 0 {
		t.Errorf("expected no failing checks, got %v", body.Checks)
	}
}
