//go:build linux

package ipcqueue

import (
	"time"

	"golang.org/x/sys/unix"
)

// posixMQQueue backs the SharedQueue contract with a SOCK_DGRAM AF_UNIX
// socket pair instead of a POSIX mq_open queue: x/sys/unix does not
// expose the mq_* syscalls directly, and a unix datagram socket offers
// the same multi-writer/single-reader, message-boundary-preserving,
// kernel-buffered semantics that the spec asks of the shared queue. The
// parent process creates the pair before any worker or coordinator
// goroutine group begins sending, mirroring the "created once by the
// parent before fork, inherited by children" lifecycle in spec.md §3.
type posixMQQueue struct {
	fd     int
	sendFD int
}

// newPosixQueue opens a new datagram socket pair; index 0 acts as the
// single reader end and index 1 as the end every TrySend writes to.
func newPosixQueue() (Queue, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	return &posixMQQueue{fd: fds[0], sendFD: fds[1]}, nil
}

func (q *posixMQQueue) TrySend(buf []byte, prio int) (Status, error) {
	err := unix.Send(q.sendFD, buf, unix.MSG_DONTWAIT)
	switch err {
	case nil:
		return StatusOK, nil
	case unix.EAGAIN:
		return StatusFull, nil
	default:
		return StatusClosed, err
	}
}

func (q *posixMQQueue) TimedReceive(buf []byte, deadline time.Time) (int, bool, error) {
	tv := unix.NsecToTimeval(time.Until(deadline).Nanoseconds())
	fdSet := &unix.FdSet{}
	fdSet.Set(q.fd)
	n, err := unix.Select(q.fd+1, fdSet, nil, nil, &tv)
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	read, _, err := unix.Recvfrom(q.fd, buf, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, false, nil
		}
		return 0, false, err
	}
	return read, true, nil
}

func (q *posixMQQueue) Close() error {
	sendErr := unix.Close(q.sendFD)
	if err := unix.Close(q.fd); err != nil {
		return err
	}
	return sendErr
}

// Prefork and Postfork satisfy forksafe.Forkable. Both are no-ops: the
// socket fd is inherited across fork() unchanged, so there is no
// background activity to quiesce or resume around the syscall.
func (q *posixMQQueue) Prefork()      {}
func (q *posixMQQueue) Postfork(bool) {}
