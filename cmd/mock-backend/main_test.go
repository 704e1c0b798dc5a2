package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rhuss/blueprint/pkg/api"
	"github.com/rhuss/blueprint/pkg/client"
	"github.com/rhuss/blueprint/pkg/config"
	"github.com/rhuss/blueprint/pkg/stream"
	"github.com/rhuss/blueprint/pkg/transport"
)

func testHandler(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.Mock.ChunkRate = 0
	if mutate != nil {
		mutate(&cfg)
	}
	h, _ := newHandler(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h
}

func TestHandlerStreamsWithMarker(t *testing.T) {
	h := testHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/blueprint/generate_mindmap",
		strings.NewReader(`{"content":"# A"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasSuffix(rec.Body.String(), stream.DefaultSentinel) {
		t.Errorf("body does not end with marker: %q", rec.Body.String())
	}
	if rec.Header().Get(transport.RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	h := testHandler(t, nil)

	// Serve one routed request so the request counters carry a route label.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `blueprint_requests_total{method="GET",route="GET /healthz",status="2xx"}`) {
		t.Errorf("metrics output missing healthz request counter")
	}
}

func TestHandlerMetricsDisabled(t *testing.T) {
	h := testHandler(t, func(c *config.Config) {
		c.Observability.Metrics.Enabled = false
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404", rec.Code)
	}
}

func TestHandlerCustomMarker(t *testing.T) {
	h := testHandler(t, func(c *config.Config) {
		c.Stream.Marker = "<<END>>"
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/blueprint/generate_mindmap",
		strings.NewReader(`{"content":"# A"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.HasSuffix(body, "<<END>>") || strings.Contains(body, stream.DefaultSentinel) {
		t.Errorf("unexpected body %q", body)
	}
}

func TestHandlerRequiresAPIKey(t *testing.T) {
	h := testHandler(t, func(c *config.Config) {
		c.Mock.APIKeys = []string{"secret"}
	})

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/blueprint/generate_mindmap",
			strings.NewReader(`{"content":"# A"}`))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without key: status = %d, want 401", rec.Code)
	}

	req := newReq()
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with key: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz should bypass auth, status = %d", rec.Code)
	}
}

func TestAuthMiddlewareDisabledByDefault(t *testing.T) {
	cfg := config.Defaults()
	if authMiddleware(&cfg) != nil {
		t.Error("expected no auth middleware with default config")
	}
}

func TestClientAgainstAuthenticatedBackend(t *testing.T) {
	srv := httptest.NewServer(testHandler(t, func(c *config.Config) {
		c.Mock.APIKeys = []string{"secret"}
	}))
	defer srv.Close()

	req := api.GenerateMindmapRequest{Content: "# A"}

	anon, err := client.New(client.Config{BaseURL: srv.URL + "/api/v1"})
	if err != nil {
		t.Fatal(err)
	}
	var gotErr error
	anon.GenerateMindmap(context.Background(), req, stream.Handler{
		OnError: func(err error) { gotErr = err },
	})
	var apiErr *api.APIError
	if !errors.As(gotErr, &apiErr) || apiErr.Type != api.ErrorTypeUnauthorized || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("error = %v, want unauthorized 401", gotErr)
	}
	if apiErr.Message != "authentication required" {
		t.Errorf("message = %q", apiErr.Message)
	}

	authed, err := client.New(client.Config{
		BaseURL: srv.URL + "/api/v1",
		Headers: map[string]string{"Authorization": "Bearer secret"},
	})
	if err != nil {
		t.Fatal(err)
	}
	text, err := stream.Collect(authed.Stream(context.Background(), client.NewGenerateMindmapOperation(req)))
	if err != nil {
		t.Fatalf("authenticated stream failed: %v", err)
	}
	if text != "# Report overview\n## A\n" {
		t.Errorf("text = %q", text)
	}
}
