// Package registry tracks which worker PIDs are alive. The worker-side
// counterpart that announces startup/shutdown to the coordinator lives
// in package registrar.
package registry

import (
	"sync"

	"golang.org/x/sys/unix"
)

type workerEntry struct {
	pid  int
	ppid int
}

// WorkerRegistry is the coordinator-owned set of live worker PIDs. It is
// guarded by an internal mutex because the periodic task goroutine
// mutates it (PruneDead) while the dispatcher goroutine also mutates it
// (Register/Unregister) as commands arrive.
type WorkerRegistry struct {
	mu      sync.RWMutex
	workers map[int]workerEntry
}

// NewWorkerRegistry constructs an empty registry.
func NewWorkerRegistry() *WorkerRegistry {
	return &WorkerRegistry{workers: make(map[int]workerEntry)}
}

// Register records a worker as live.
func (r *WorkerRegistry) Register(pid, ppid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers[pid] = workerEntry{pid: pid, ppid: ppid}
}

// Unregister removes a worker, idempotently.
func (r *WorkerRegistry) Unregister(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workers, pid)
}

// Has reports whether pid is currently tracked as live.
func (r *WorkerRegistry) Has(pid int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.workers[pid]
	return ok
}

// Count returns the number of tracked workers.
func (r *WorkerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// PruneDead removes every worker whose liveness probe reports ESRCH
// (no such process) and returns how many were removed. Processes
// returning any other error, notably EPERM, are left in place: the
// probe does not rely on the parent-child relationship, since tracked
// workers are siblings of the coordinator, not its children.
func (r *WorkerRegistry) PruneDead() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for pid := range r.workers {
		if probeDead(pid) {
			delete(r.workers, pid)
			removed++
		}
	}
	return removed
}

// probeDead sends the null signal and reports true only when the kernel
// confirms the process no longer exists.
func probeDead(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == unix.ESRCH
}
