package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	server "drift-and-draft/server"
	"drift-and-draft/server/logging"
)

func newTestHandler(t *testing.T) (*server.Hub, http.Handler) {
	t.Helper()
	hub := server.NewHubWithConfig(server.DefaultHubConfig(), logging.NopPublisher())
	return hub, NewHTTPHandler(hub, HTTPHandlerConfig{})
}

func TestHTTPHealth(t *testing.T) {
	_, handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestHTTPJoinReturnsCatalog(t *testing.T) {
	_, handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/join", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode join payload: %v", err)
	}

	if id, ok := payload["id"].(string); !ok || id == "" {
		t.Fatalf("expected join payload to carry a spectator id, got %v", payload["id"])
	}
	tracks, ok := payload["tracks"].([]any)
	if !ok || len(tracks) == 0 {
		t.Fatalf("expected join payload to include the track catalog, payload=%s", resp.Body.String())
	}
	roster, ok := payload["roster"].([]any)
	if !ok || len(roster) == 0 {
		t.Fatalf("expected join payload to include the driver roster, payload=%s", resp.Body.String())
	}
	powerUps, ok := payload["powerUps"].([]any)
	if !ok || len(powerUps) == 0 {
		t.Fatalf("expected join payload to include the power-up catalog, payload=%s", resp.Body.String())
	}
	state, ok := payload["state"].(map[string]any)
	if !ok {
		t.Fatalf("expected join payload to embed a state frame, got %T", payload["state"])
	}
	if phase, ok := state["phase"].(string); !ok || phase != "lobby" {
		t.Fatalf("expected a lobby state frame, got %v", state["phase"])
	}
}

func TestHTTPJoinRejectsGet(t *testing.T) {
	_, handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/join", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", resp.Code)
	}
}

func TestHTTPDiagnosticsShape(t *testing.T) {
	hub, handler := newTestHandler(t)
	hub.Join()

	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics payload: %v", err)
	}

	if status, ok := payload["status"].(string); !ok || status != "ok" {
		t.Fatalf("expected diagnostics status ok, got %v", payload["status"])
	}
	if phase, ok := payload["phase"].(string); !ok || phase != "lobby" {
		t.Fatalf("expected lobby phase, got %v", payload["phase"])
	}
	if tick, ok := payload["tick"].(float64); !ok || tick != 0 {
		t.Fatalf("expected tick 0 before the loop runs, got %v", payload["tick"])
	}
	if tickRate, ok := payload["tickRate"].(float64); !ok || int(tickRate) != server.TickRate() {
		t.Fatalf("expected tickRate %d, got %v", server.TickRate(), payload["tickRate"])
	}
	spectators, ok := payload["spectators"].([]any)
	if !ok {
		t.Fatalf("expected spectators array, got %T", payload["spectators"])
	}
	if len(spectators) != 1 {
		t.Fatalf("expected one joined spectator in diagnostics, got %d", len(spectators))
	}
	if _, ok := payload["telemetry"].(map[string]any); !ok {
		t.Fatalf("expected telemetry object, got %T", payload["telemetry"])
	}
}

func TestHTTPResultsWithoutStore(t *testing.T) {
	_, handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode results payload: %v", err)
	}

	if _, present := payload["latest"]; present {
		t.Fatalf("expected latest omitted before any race finished, payload=%s", resp.Body.String())
	}
	races, ok := payload["races"].([]any)
	if !ok || len(races) != 0 {
		t.Fatalf("expected an empty races array, got %v", payload["races"])
	}
	standings, ok := payload["standings"].([]any)
	if !ok || len(standings) != 0 {
		t.Fatalf("expected an empty standings array, got %v", payload["standings"])
	}
}

func TestHTTPResultsRejectsPost(t *testing.T) {
	_, handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/results", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", resp.Code)
	}
}

func TestHTTPWebsocketRequiresSpectatorID(t *testing.T) {
	_, handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a missing spectator id, got %d", resp.Code)
	}
}
