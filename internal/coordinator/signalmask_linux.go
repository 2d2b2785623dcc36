//go:build linux

package coordinator

import "golang.org/x/sys/unix"

// blockPeriodicSignals masks SIGTERM, SIGHUP, SIGINT, SIGWINCH, and
// SIGUSR1 on the calling thread. The periodic task goroutine calls this
// after runtime.LockOSThread() so those signals are only ever observed
// on the main goroutine's signal.Notify channel, never interrupting a
// registry prune or GC pass partway through.
func blockPeriodicSignals() error {
	var set unix.Sigset_t
	for _, sig := range []unix.Signal{unix.SIGTERM, unix.SIGHUP, unix.SIGINT, unix.SIGWINCH, unix.SIGUSR1} {
		bit := uint(sig) - 1
		set.Val[bit/64] |= 1 << (bit % 64)
	}
	return unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil)
}
