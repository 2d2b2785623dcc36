package ipcqueue

// Kind selects a SharedQueue backend.
type Kind int

const (
	// KindMemory is the default, portable, in-process backend.
	KindMemory Kind = iota
	// KindPosix uses the platform's native datagram-queue primitive.
	// Only implemented on linux; New falls back to KindMemory elsewhere.
	KindPosix
)

// New constructs a Queue of the requested kind.
func New(kind Kind) (Queue, error) {
	if kind == KindPosix {
		if q, err := newPosixQueue(); err == nil {
			return q, nil
		}
	}
	return NewMemQueue(), nil
}
