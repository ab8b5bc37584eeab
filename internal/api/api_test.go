package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(nil)
	rec := httptest.NewRecorder()

	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
}

func TestHealthRejectsPost(t *testing.T) {
	srv := NewServer(nil)
	rec := httptest.NewRecorder()

	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestWebhookDelegatesOnPost(t *testing.T) {
	called := false
	srv := NewServer(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()

	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/twilio", nil))

	if !called {
		t.Error("expected webhook handler to be invoked")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestWebhookRejectsGet(t *testing.T) {
	called := false
	srv := NewServer(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	rec := httptest.NewRecorder()

	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook/twilio", nil))

	if called {
		t.Error("webhook handler should not run on GET")
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestWebhookUnmountedWithoutHandler(t *testing.T) {
	srv := NewServer(nil)
	rec := httptest.NewRecorder()

	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/twilio", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when no webhook is configured, got %d", rec.Code)
	}
}
