package diagnostics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckAggregatesWorstStatus(t *testing.T) {
	hc := NewHealthChecker("0.1.0")
	hc.RegisterCheck("ok", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusOK}
	})
	hc.RegisterCheck("degraded", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDegraded}
	})

	resp := hc.Check(context.Background())
	if resp.Status != StatusDegraded {
		t.Fatalf("expected overall status degraded, got %s", resp.Status)
	}

	hc.RegisterCheck("unhealthy", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusUnhealthy}
	})
	resp = hc.Check(context.Background())
	if resp.Status != StatusUnhealthy {
		t.Fatalf("expected overall status unhealthy, got %s", resp.Status)
	}
}

func TestHandlerReturns503WhenUnhealthy(t *testing.T) {
	hc := NewHealthChecker("0.1.0")
	hc.RegisterCheck("queue", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusUnhealthy, Message: "down"}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	hc.Handler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestIPCQueueCheckReportsProbeError(t *testing.T) {
	check := IPCQueueCheck(func() error { return errors.New("no receiver") })
	result := check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", result.Status)
	}
}

func TestWorkerRegistryCheckDegradedWhenEmpty(t *testing.T) {
	check := WorkerRegistryCheck(func() int { return 0 })
	result := check(context.Background())
	if result.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", result.Status)
	}
}
