// Package telemetry provides the coordinator's structured logging and
// distributed tracing setup.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging, with a small fixed API
// surface so callers never reach for the underlying zerolog.Event
// builder directly.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger builds a Logger tagged with service/version/host fields.
// output defaults to os.Stdout when nil.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", hostname()).
		Str("instance", uuid.NewString()).
		Logger()

	return &Logger{logger: logger}
}

// WithWorker adds worker pid/ppid context to the logger.
func (l *Logger) WithWorker(pid, ppid int) *Logger {
	return &Logger{logger: l.logger.With().Int("pid", pid).Int("ppid", ppid).Logger()}
}

// WithEndpoint adds endpoint_hash context to the logger.
func (l *Logger) WithEndpoint(endpointHash string) *Logger {
	return &Logger{logger: l.logger.With().Str("endpoint_hash", endpointHash).Logger()}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.logger.Debug().Msg(msg) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.logger.Info().Msg(msg) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.logger.Warn().Msg(msg) }

// Error logs an error message.
func (l *Logger) Error(err error, msg string) { l.logger.Error().Err(err).Msg(msg) }

// Fatal logs a fatal message and exits the process.
func (l *Logger) Fatal(err error, msg string) { l.logger.Fatal().Err(err).Msg(msg) }

// WorkerRegistered logs a worker lifecycle registration event.
func (l *Logger) WorkerRegistered(pid, ppid int) {
	l.logger.Info().Int("pid", pid).Int("ppid", ppid).Msg("worker registered")
}

// WorkerUnregistered logs a worker lifecycle deregistration event.
func (l *Logger) WorkerUnregistered(pid int, reason string) {
	l.logger.Info().Int("pid", pid).Str("reason", reason).Msg("worker unregistered")
}

// ConfigChanged logs a configuration snapshot change.
func (l *Logger) ConfigChanged(revision uint64, changed []string) {
	l.logger.Info().
		Uint64("revision", revision).
		Strs("changed_keys", changed).
		Msg("configuration snapshot changed")
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
