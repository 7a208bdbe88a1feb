package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/metrics"
)

func TestServer_Routes(t *testing.T) {
	t.Parallel()
	app := metrics.New()
	app.ObserveSegment("pool", time.Millisecond)
	s := New("127.0.0.1:0", app, logging.Nop())
	h := s.Handler()

	tests := []struct {
		method, path string
		code         int
		contains     string
	}{
		{http.MethodGet, "/healthz", http.StatusOK, "ok"},
		{http.MethodGet, "/metrics", http.StatusOK, `picalc_segments_total{mode="pool"} 1`},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, http.NoBody))
		if rec.Code != tt.code {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.code)
		}
		if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
			t.Errorf("%s %s: body should contain %q", tt.method, tt.path, tt.contains)
		}
	}
}

func TestServer_Start(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := New("127.0.0.1:0", nil, nil).Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be applied")
	}
}

func TestServer_StartBadAddress(t *testing.T) {
	t.Parallel()
	if _, err := New("256.0.0.1:bad", nil, nil).Start(context.Background()); err == nil {
		t.Error("expected a listen error")
	}
}
