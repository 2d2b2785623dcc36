//go:build !linux

package ipcqueue

import "errors"

// newPosixQueue has no portable equivalent outside linux; New falls back
// to the in-memory backend when this returns an error.
func newPosixQueue() (Queue, error) {
	return nil, errors.New("ipcqueue: posix backend not available on this platform")
}
