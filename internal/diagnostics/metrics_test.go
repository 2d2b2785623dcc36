package diagnostics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCommandDispatchedIncrementsLabeledCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.CommandDispatched("establish_connection")
	m.CommandDispatched("establish_connection")
	m.CommandDecodeError()

	var metric dto.Metric
	if err := m.CommandsDispatchedTotal.WithLabelValues("establish_connection").Write(&metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected counter value 2, got %v", got)
	}

	var decodeErr dto.Metric
	if err := m.CommandDecodeErrors.Write(&decodeErr); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := decodeErr.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected decode error counter 1, got %v", got)
	}
}

func TestNewMetricsTwiceWithSeparateRegistriesDoesNotPanic(t *testing.T) {
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}
