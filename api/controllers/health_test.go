package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/olist-insights/pkg/config"
)

type stubReady bool

func (s stubReady) Ready() bool { return bool(s) }

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "dev"}}
}

func TestHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthLive(testConfig())(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get(envHeader); got != "dev" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestHealthReady(t *testing.T) {
	cases := []struct {
		name   string
		ready  ReadinessChecker
		redis  Pinger
		status int
	}{
		{name: "not loaded", ready: stubReady(false), status: http.StatusServiceUnavailable},
		{name: "loaded without redis", ready: stubReady(true), status: http.StatusOK},
		{name: "redis healthy", ready: stubReady(true), redis: stubPinger{}, status: http.StatusOK},
		{name: "redis down", ready: stubReady(true), redis: stubPinger{err: errors.New("dial tcp")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			HealthReady(testConfig(), nil, tc.ready, tc.redis)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}
