package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pastewarden.ai/internal/sim/fetch"
	"pastewarden.ai/internal/sim/host"
)

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:5000":     true,
		"10.0.0.2:5000":  false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", in, got, want)
		}
	}
}

func TestLoadTuningMissingUsesDefaults(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	tune, err := loadTuning(filepath.Join(t.TempDir(), "missing.yaml"), logger)
	if err != nil {
		t.Fatalf("loadTuning: %v", err)
	}
	if tune.ClaimQuantity != 1 {
		t.Fatalf("claim quantity: got %d", tune.ClaimQuantity)
	}
}

func TestLoadTuningInvalidFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("max_queue: 1000\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadTuning(path, log.New(io.Discard, "", 0)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestAdminHandlerRejectsNonLoopback(t *testing.T) {
	called := false
	hf := adminHandler(func(r *http.Request) error {
		called = true
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/release", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	rec := httptest.NewRecorder()
	hf(rec, req)
	if rec.Code != http.StatusForbidden || called {
		t.Fatalf("code=%d called=%v", rec.Code, called)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/release", nil)
	req.RemoteAddr = "127.0.0.1:4444"
	rec = httptest.NewRecorder()
	hf(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET code=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/v1/release", nil)
	req.RemoteAddr = "127.0.0.1:4444"
	rec = httptest.NewRecorder()
	hf(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("code=%d called=%v", rec.Code, called)
	}
}

func TestDecisionCountsMetrics(t *testing.T) {
	c := &decisionCounts{}
	_ = c.WriteDecision(host.Decision{Plan: fetch.Plan{Source: fetch.SourceOverride}})
	_ = c.WriteDecision(host.Decision{Plan: fetch.Plan{Source: fetch.SourceOverride}})
	_ = c.WriteDecision(host.Decision{Plan: fetch.Plan{Source: fetch.SourceNone}})

	rec := httptest.NewRecorder()
	c.writeMetrics(rec)
	body := rec.Body.String()
	if !strings.Contains(body, `pastewarden_decisions_total{source="OVERRIDE"} 2`) {
		t.Fatalf("missing override count:\n%s", body)
	}
	if !strings.Contains(body, `pastewarden_decisions_total{source="NONE"} 1`) {
		t.Fatalf("missing none count:\n%s", body)
	}
}

func TestOpenRuntimeIndexDisabled(t *testing.T) {
	idx, err := openRuntimeIndex(t.TempDir(), true)
	if err != nil || idx != nil {
		t.Fatalf("idx=%v err=%v", idx, err)
	}
	t.Setenv("PW_INDEX_BACKEND", "bogus")
	if _, err := openRuntimeIndex(t.TempDir(), false); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}
