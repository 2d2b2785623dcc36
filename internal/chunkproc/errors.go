package chunkproc

import "errors"

// Data errors raised during reassembly. Per the error handling policy,
// these are logged and the offending partial is dropped; none of them
// ever propagate out of the coordinator's receive loop.
var (
	// ErrMalformedFrame means the raw slot image was too short to
	// contain a frame header.
	ErrMalformedFrame = errors.New("chunkproc: malformed frame")
	// ErrProtocolViolation means a chunk disagreed with the partial
	// message it was addressed to: a different total_size, or an
	// offset other than the exact end of the buffer assembled so far.
	ErrProtocolViolation = errors.New("chunkproc: protocol violation")
	// ErrOverflow means offset+len(payload) exceeded total_size.
	ErrOverflow = errors.New("chunkproc: chunk overflows total_size")
	// ErrSendFailed means a payload could not be fully enqueued after
	// exhausting the bounded retry budget; any already-sent prefix is
	// orphaned and will be reclaimed by the receiver's GC.
	ErrSendFailed = errors.New("chunkproc: send failed, queue persistently full")
)
