package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLoggerIncludesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("otelcoordinator", "0.1.0", &buf)
	logger.Info("coordinator starting")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "otelcoordinator" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["message"] != "coordinator starting" {
		t.Fatalf("expected message field, got %v", entry["message"])
	}
}

func TestWithWorkerAddsPidFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("otelcoordinator", "0.1.0", &buf).WithWorker(42, 7)
	logger.Debug("worker context attached")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	if entry["pid"] != float64(42) || entry["ppid"] != float64(7) {
		t.Fatalf("expected pid/ppid fields, got %v", entry)
	}
}

func TestErrorIncludesErrField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("otelcoordinator", "0.1.0", &buf)
	logger.Error(errors.New("boom"), "dispatch failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	if entry["error"] != "boom" {
		t.Fatalf("expected error field, got %v", entry["error"])
	}
}

func TestRedact(t *testing.T) {
	if got := Redact(""); got != "" {
		t.Fatalf("expected empty string to pass through, got %q", got)
	}
	if got := Redact("hunter2"); got != "***" {
		t.Fatalf("expected secret masked, got %q", got)
	}
}
