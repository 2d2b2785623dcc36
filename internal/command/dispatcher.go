package command

import (
	"encoding/base64"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/quantarax/otelcoordinator/internal/ratelimit"
	"github.com/quantarax/otelcoordinator/internal/registry"
	"github.com/quantarax/otelcoordinator/internal/transport"
)

// Logger is the minimal surface Dispatcher needs; internal/telemetry.Logger
// satisfies it.
type Logger interface {
	Debug(msg string)
	Warn(msg string)
	Error(err error, msg string)
}

// Metrics is the minimal surface Dispatcher needs for observability;
// internal/diagnostics.Metrics satisfies it. It is optional: a
// Dispatcher with no Metrics set simply skips recording.
type Metrics interface {
	CommandDispatched(kind string)
	CommandDecodeError()
}

// Dispatcher decodes completed messages and routes them to the HTTP
// transport or the worker registry. A decode failure or an unknown
// command variant is logged and discarded; neither ever panics or
// returns an error to the caller, matching the requirement that the
// coordinator's loop never aborts on a bad message.
type Dispatcher struct {
	transport transport.HTTPTransport
	workers   *registry.WorkerRegistry
	logger    Logger
	metrics   Metrics

	mu      sync.Mutex
	limiter map[string]*ratelimit.TokenBucket
}

// SetMetrics attaches a Metrics sink. It may be called after
// construction so callers that build the diagnostics.Metrics registry
// later don't need to restructure NewDispatcher's call sites.
func (d *Dispatcher) SetMetrics(m Metrics) { d.metrics = m }

// NewDispatcher constructs a Dispatcher. transport may be nil in tests
// that only exercise WorkerStarted/WorkerGoingToShutdown routing.
func NewDispatcher(t transport.HTTPTransport, workers *registry.WorkerRegistry, logger Logger) *Dispatcher {
	return &Dispatcher{
		transport: t,
		workers:   workers,
		logger:    logger,
		limiter:   make(map[string]*ratelimit.TokenBucket),
	}
}

// connectionBucketFor returns the token bucket tracking connection
// attempts for endpointHash, creating one (2 attempts/sec, burst 5) on
// first use. It only informs the warning logged when a burst of
// EstablishConnection commands for one endpoint arrives faster than
// budget — dispatch itself is never gated on it.
func (d *Dispatcher) connectionBucketFor(endpointHash string) *ratelimit.TokenBucket {
	d.mu.Lock()
	defer d.mu.Unlock()
	tb, ok := d.limiter[endpointHash]
	if !ok {
		tb = ratelimit.NewTokenBucket(2, 5)
		d.limiter[endpointHash] = tb
	}
	return tb
}

// Dispatch decodes buf and routes the resulting command. It never
// returns an error: decode failures and unknown variants are logged and
// swallowed here, matching the error-handling policy for this
// component.
func (d *Dispatcher) Dispatch(buf []byte) {
	cmd, err := Decode(buf)
	if err != nil {
		if d.metrics != nil {
			d.metrics.CommandDecodeError()
		}
		if d.logger != nil {
			d.logger.Error(err, "command: discarding undecodable message")
		}
		return
	}

	switch c := cmd.(type) {
	case EstablishConnection:
		d.recordKind("establish_connection")
		d.dispatchEstablishConnection(c)
	case SendEndpointPayload:
		d.recordKind("send_endpoint_payload")
		if d.transport != nil {
			if err := d.transport.Enqueue(c.EndpointHash, c.Payload); err != nil && d.logger != nil {
				d.logger.Warn("command: transport rejected enqueued payload: " + err.Error())
			}
		}
	case WorkerStarted:
		d.recordKind("worker_started")
		if d.workers != nil {
			d.workers.Register(c.PID, c.PPID)
		}
	case WorkerGoingToShutdown:
		d.recordKind("worker_going_to_shutdown")
		if d.workers != nil {
			d.workers.Unregister(c.PID)
		}
	default:
		d.recordKind("unknown")
		if d.logger != nil {
			d.logger.Warn("command: ignoring unknown command variant")
		}
	}
}

func (d *Dispatcher) recordKind(kind string) {
	if d.metrics != nil {
		d.metrics.CommandDispatched(kind)
	}
}

func (d *Dispatcher) dispatchEstablishConnection(c EstablishConnection) {
	if d.logger != nil {
		computed := blake3.Sum256([]byte(c.URL))
		if base64.StdEncoding.EncodeToString(computed[:]) != c.EndpointHash {
			// Diagnostic integrity check only — the sender is expected
			// to compute endpoint_hash the same way, but a mismatch is
			// not an authentication boundary, so the command still
			// proceeds.
			d.logger.Warn("command: endpoint_hash does not match blake3(url) for " + c.URL)
		}
	}

	if d.transport == nil {
		return
	}
	// EstablishConnection is mandatory: a burst past the per-endpoint
	// budget is logged, not dropped, since suppressing it could leave
	// an endpoint permanently unconfigured.
	if !d.connectionBucketFor(c.EndpointHash).Allow(1) && d.logger != nil {
		d.logger.Warn("command: EstablishConnection for " + c.EndpointHash + " exceeds rate budget, forwarding anyway")
	}
	err := d.transport.InitializeConnection(
		c.URL, c.EndpointHash, c.ContentType, c.Headers,
		c.TimeoutMS, c.MaxRetries, c.RetryDelayMS, c.SSL,
	)
	if err != nil && d.logger != nil {
		// cert_key_password is never interpolated into log output.
		d.logger.Warn("command: InitializeConnection failed for " + c.EndpointHash + ": " + err.Error())
	}
}
