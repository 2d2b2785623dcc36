// Package registrar implements the worker-side counterpart to
// registry.WorkerRegistry: it announces a worker's lifecycle to the
// coordinator by sending WorkerStarted and WorkerGoingToShutdown
// commands through the chunked IPC protocol.
package registrar

import (
	"github.com/quantarax/otelcoordinator/internal/command"
)

// Sender is the chunkproc.Sender surface the registrar needs.
type Sender interface {
	SendPayload(payload []byte) error
}

// Logger is the minimal surface the registrar needs for its best-effort
// delivery logging.
type Logger interface {
	Debug(msg string)
}

// Registrar sends worker lifecycle commands. Delivery is best-effort:
// if the coordinator has already exited, the underlying send fails and
// is logged at debug with no retry.
type Registrar struct {
	sender Sender
	logger Logger
	pid    int
	ppid   int
}

// New constructs a Registrar for the current process's pid/ppid.
func New(sender Sender, logger Logger, pid, ppid int) *Registrar {
	return &Registrar{sender: sender, logger: logger, pid: pid, ppid: ppid}
}

// Prefork is a no-op for the registrar: it holds no state that fork
// would invalidate.
func (r *Registrar) Prefork() {}

// Postfork announces WorkerStarted when running in the forked child.
// In the parent (child == false) it does nothing.
func (r *Registrar) Postfork(child bool) {
	if !child {
		return
	}
	r.send(command.WorkerStarted{PID: r.pid, PPID: r.ppid})
}

// Close announces WorkerGoingToShutdown. Go has no destructors, so the
// worker process calls this explicitly as it begins to exit, e.g. via
// defer right after New, or from its shutdown handler.
func (r *Registrar) Close() error {
	r.send(command.WorkerGoingToShutdown{PID: r.pid, PPID: r.ppid})
	return nil
}

func (r *Registrar) send(cmd command.Command) {
	buf, err := command.Encode(cmd)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("registrar: failed to encode lifecycle command: " + err.Error())
		}
		return
	}
	if err := r.sender.SendPayload(buf); err != nil {
		if r.logger != nil {
			r.logger.Debug("registrar: best-effort lifecycle delivery failed: " + err.Error())
		}
	}
}
