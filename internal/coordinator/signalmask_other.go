//go:build !linux

package coordinator

// blockPeriodicSignals is a no-op outside linux: pthread_sigmask's
// semantics and Sigset_t layout aren't portable, and the POSIX IPC
// queue backend this signal isolation protects is linux-only anyway
// (see internal/ipcqueue/queue_posix_other.go).
func blockPeriodicSignals() error { return nil }
