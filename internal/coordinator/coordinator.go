// Package coordinator assembles the IPC queue, the chunk reassembler,
// the command dispatcher, the worker registry, and the configuration
// pipeline into one process loop: the coordinator subsystem described
// by the rest of this module's packages.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/quantarax/otelcoordinator/internal/chunkproc"
	"github.com/quantarax/otelcoordinator/internal/command"
	"github.com/quantarax/otelcoordinator/internal/config"
	"github.com/quantarax/otelcoordinator/internal/diagnostics"
	"github.com/quantarax/otelcoordinator/internal/forksafe"
	"github.com/quantarax/otelcoordinator/internal/ipcqueue"
	"github.com/quantarax/otelcoordinator/internal/registry"
	"github.com/quantarax/otelcoordinator/internal/telemetry"
	"github.com/quantarax/otelcoordinator/internal/transport"
)

const (
	fastTaskInterval = 100 * time.Millisecond
	slowTaskInterval = time.Minute
	receiveTimeout   = 100 * time.Millisecond
)

// CoordinatorProcess owns the shared IPC queue, the reassembly and
// dispatch pipeline fed by it, the worker liveness registry, and the
// configuration snapshot storage. Run drives the receive loop until
// its context is cancelled; a PeriodicTaskExecutor handles liveness
// pruning and reassembly-buffer garbage collection concurrently.
type CoordinatorProcess struct {
	queue      ipcqueue.Queue
	processor  *chunkproc.Processor
	dispatcher *command.Dispatcher
	workers    *registry.WorkerRegistry
	storage    *config.Storage
	metrics    *diagnostics.Metrics
	logger     *telemetry.Logger
	forksafe   *forksafe.Registry
	periodic   *PeriodicTaskExecutor

	mu sync.Mutex
	// lastCleanup and partialMaxAge are CoordinatorProcess fields
	// rather than package-level state: the reassembly buffer and its
	// GC cadence belong to one running coordinator instance, and tests
	// construct more than one in the same process.
	lastCleanup   time.Time
	partialMaxAge time.Duration
	// stop is set by Run for the duration of the loop, so a fast-tick
	// tripping the "parent gone and no workers left" condition can end
	// the loop without waiting on ctx.Done().
	stop context.CancelFunc
}

// New assembles a CoordinatorProcess. httpTransport may be nil, in
// which case EstablishConnection and SendEndpointPayload commands are
// decoded and counted but never acted on — useful for a coordinator
// instance that only needs to track worker lifecycle.
func New(
	queue ipcqueue.Queue,
	httpTransport transport.HTTPTransport,
	storage *config.Storage,
	logger *telemetry.Logger,
	metrics *diagnostics.Metrics,
	forksafeRegistry *forksafe.Registry,
) *CoordinatorProcess {
	workers := registry.NewWorkerRegistry()
	dispatcher := command.NewDispatcher(httpTransport, workers, dispatcherLogger{logger})
	if metrics != nil {
		dispatcher.SetMetrics(metrics)
	}

	c := &CoordinatorProcess{
		queue:       queue,
		dispatcher:  dispatcher,
		workers:     workers,
		storage:     storage,
		metrics:     metrics,
		logger:      logger,
		forksafe:    forksafeRegistry,
		lastCleanup: time.Now(),
	}

	c.processor = chunkproc.NewProcessor(queue, c.onMessageComplete)
	if metrics != nil {
		c.processor.SetFrameObserver(metrics.ChunksReceivedTotal.Inc)
	}
	if f, ok := queue.(forksafe.Forkable); ok && forksafeRegistry != nil {
		forksafeRegistry.Register(f)
	}
	c.refreshTunables()
	c.periodic = NewPeriodicTaskExecutor(fastTaskInterval, slowTaskInterval, c.runFastTasks, c.runSlowTasks)
	return c
}

// WorkerRegistry exposes the registry for diagnostics wiring (health
// checks, metrics gauges) that lives outside this package.
func (c *CoordinatorProcess) WorkerRegistry() *registry.WorkerRegistry { return c.workers }

// Processor exposes the reassembly processor for diagnostics wiring.
func (c *CoordinatorProcess) Processor() *chunkproc.Processor { return c.processor }

// ForksafeRegistry exposes the fork-safety registry so a vendor hook or
// a worker-side component sharing this process can register additional
// Forkables.
func (c *CoordinatorProcess) ForksafeRegistry() *forksafe.Registry { return c.forksafe }

func (c *CoordinatorProcess) onMessageComplete(buf []byte) {
	if c.metrics != nil {
		c.metrics.MessagesReassembled.Inc()
	}
	c.dispatcher.Dispatch(buf)
}

// Run drives the blocking receive loop on the calling goroutine until
// ctx is cancelled or a periodic tick determines the coordinator's
// parent is gone and no workers remain to serve. The periodic task
// executor starts and stops around the loop's lifetime.
func (c *CoordinatorProcess) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.stop = cancel
	c.mu.Unlock()
	defer cancel()

	c.periodic.Start()
	defer c.periodic.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deadline := time.Now().Add(receiveTimeout)
		if err := c.processor.TryReceive(deadline); err != nil {
			c.recordReceiveError(err)
		}
	}
}

// stopRunning ends the Run loop started by the most recent Run call, if
// any. Safe to call before Run or after it has already returned.
func (c *CoordinatorProcess) stopRunning() {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (c *CoordinatorProcess) recordReceiveError(err error) {
	reason := "unknown"
	switch err {
	case chunkproc.ErrMalformedFrame:
		reason = "malformed_frame"
	case chunkproc.ErrProtocolViolation:
		reason = "protocol_violation"
	case chunkproc.ErrOverflow:
		reason = "overflow"
	}
	if c.metrics != nil {
		c.metrics.ChunksDroppedTotal.WithLabelValues(reason).Inc()
	}
	if c.logger != nil {
		c.logger.Warn("coordinator: chunk receive error (" + reason + "): " + err.Error())
	}
}

// runFastTasks checks coordinator-parent liveness. Only once the parent
// is gone does it sweep the registry for dead workers and, if none are
// left to serve, end the Run loop — mirroring setupPeriodicTasks's
// getppid()-gated liveness sweep: pruning live siblings while the
// parent is still around is not this task's job. It runs every
// fastTaskInterval.
func (c *CoordinatorProcess) runFastTasks(now time.Time) {
	if parentProcessGone() {
		if c.logger != nil {
			c.logger.Warn("coordinator: parent process is gone (reparented to init)")
		}

		removed := c.workers.PruneDead()
		if removed > 0 {
			if c.metrics != nil {
				c.metrics.WorkersPruned.Add(float64(removed))
			}
			if c.logger != nil {
				c.logger.Info(fmt.Sprintf("coordinator: pruned %d dead workers", removed))
			}
		}

		if c.workers.Count() == 0 {
			if c.logger != nil {
				c.logger.Info("coordinator: parent gone and no workers remain, stopping")
			}
			c.stopRunning()
		}
	}

	if c.metrics != nil {
		c.metrics.WorkersRegistered.Set(float64(c.workers.Count()))
		c.metrics.PartialMessagesActive.Set(float64(c.processor.PartialCount()))
	}

	if c.storage.Refresh() && c.metrics != nil {
		c.metrics.ConfigRefreshTotal.Inc()
		c.metrics.ConfigRevision.Set(float64(c.storage.Current().Revision))
	}
}

// runSlowTasks evicts reassembly buffers that have been waiting longer
// than the configured max age. It runs every slowTaskInterval.
func (c *CoordinatorProcess) runSlowTasks(now time.Time) {
	c.mu.Lock()
	maxAge := c.partialMaxAge
	c.lastCleanup = now
	c.mu.Unlock()

	removed := c.processor.CleanupAbandoned(now, maxAge)
	if removed > 0 {
		if c.metrics != nil {
			c.metrics.PartialsAbandoned.Add(float64(removed))
		}
		if c.logger != nil {
			c.logger.Info(fmt.Sprintf("coordinator: evicted %d abandoned partial messages", removed))
		}
	}

	c.refreshTunables()
}

// refreshTunables re-reads the max-partial-age tunable from the
// current configuration snapshot, so an operator-pushed config change
// takes effect without a restart.
func (c *CoordinatorProcess) refreshTunables() {
	snap := c.storage.Current()
	ms := snapshotIntOr(snap, "coordinator_partial_max_age_ms", 10000)

	c.mu.Lock()
	c.partialMaxAge = time.Duration(ms) * time.Millisecond
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ConfigRevision.Set(float64(snap.Revision))
	}
}

func snapshotIntOr(snap *config.Snapshot, key string, def int) int {
	v, ok := snap.Get(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parentProcessGone reports whether this process has been reparented
// to init (ppid 1), which on a well-behaved supervision tree means the
// coordinator's original parent has exited. It is a package var rather
// than a plain function so tests can substitute a fake without needing
// to spawn and orphan a real child process.
var parentProcessGone = func() bool {
	return os.Getppid() == 1
}

// dispatcherLogger adapts *telemetry.Logger to command.Logger,
// tolerating a nil *telemetry.Logger so CoordinatorProcess can be
// constructed without one in tests.
type dispatcherLogger struct{ l *telemetry.Logger }

func (d dispatcherLogger) Debug(msg string) {
	if d.l != nil {
		d.l.Debug(msg)
	}
}

func (d dispatcherLogger) Warn(msg string) {
	if d.l != nil {
		d.l.Warn(msg)
	}
}

func (d dispatcherLogger) Error(err error, msg string) {
	if d.l != nil {
		d.l.Error(err, msg)
	}
}
