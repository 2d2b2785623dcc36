package chunkproc

import (
	"sync"
	"time"

	"github.com/quantarax/otelcoordinator/internal/ipcqueue"
)

// Dispatch is called synchronously on the receiving goroutine once a
// message completes reassembly. It must not retain buf beyond the call.
type Dispatch func(buf []byte)

// Processor reassembles chunk frames read from a single Queue into
// complete messages, keyed by (sender_pid, msg_id), and hands completed
// messages to a Dispatch callback. The coordinator runs TryReceive on
// its receive loop and CleanupAbandoned on a periodic task goroutine,
// so the mutex below guards every access to the partials map.
type Processor struct {
	queue    ipcqueue.Queue
	dispatch Dispatch
	onFrame  func()

	mu       sync.Mutex
	partials map[uint32]map[uint64]*partialMessage
}

// NewProcessor constructs a Processor draining queue and invoking
// dispatch on every completed message.
func NewProcessor(queue ipcqueue.Queue, dispatch Dispatch) *Processor {
	return &Processor{
		queue:    queue,
		dispatch: dispatch,
		partials: make(map[uint32]map[uint64]*partialMessage),
	}
}

// SetFrameObserver registers fn to be called once for every frame whose
// header decodes and whose offset does not exceed its total_size. It is
// called before the frame is matched against its partial message, so
// frames later rejected with ErrProtocolViolation or ErrOverflow are
// counted too, as is every frame whether or not it completes a
// message. Used to drive a
// frames-received metric without conflating it with TryReceive's
// timeout-vs-error return, which can't distinguish "no frame arrived"
// from "a frame arrived and completed a message" by itself.
func (p *Processor) SetFrameObserver(fn func()) { p.onFrame = fn }

// TryReceive reads one frame from the queue (blocking up to deadline)
// and folds it into the matching partial message. It returns nil on a
// timeout (no frame available) as well as on ordinary success; data
// errors are returned so the caller can log them, per the error
// handling policy of never aborting the loop on a reassembly error.
func (p *Processor) TryReceive(deadline time.Time) error {
	raw := make([]byte, ipcqueue.SlotBytes)
	n, ok, err := p.queue.TimedReceive(raw, deadline)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	frame, err := ipcqueue.DecodeFrame(raw[:n])
	if err != nil {
		return ErrMalformedFrame
	}

	chunkLen, ok := frame.ChunkLen()
	if !ok {
		p.mu.Lock()
		if bySender, found := p.partials[frame.SenderPID]; found {
			delete(bySender, frame.MsgID)
		}
		p.mu.Unlock()
		return ErrOverflow
	}
	if p.onFrame != nil {
		p.onFrame()
	}

	p.mu.Lock()
	bySender, ok := p.partials[frame.SenderPID]
	if !ok {
		bySender = make(map[uint64]*partialMessage)
		p.partials[frame.SenderPID] = bySender
	}

	partial, exists := bySender[frame.MsgID]
	if !exists {
		partial = newPartialMessage(frame.TotalSize, time.Now())
		bySender[frame.MsgID] = partial
	} else if partial.totalSize != frame.TotalSize {
		delete(bySender, frame.MsgID)
		p.mu.Unlock()
		return ErrProtocolViolation
	}

	if frame.Offset != uint64(len(partial.buffer)) {
		delete(bySender, frame.MsgID)
		p.mu.Unlock()
		return ErrProtocolViolation
	}

	if frame.Offset+chunkLen > partial.totalSize {
		delete(bySender, frame.MsgID)
		p.mu.Unlock()
		return ErrOverflow
	}

	partial.buffer = append(partial.buffer, frame.Payload[:chunkLen]...)
	partial.lastUpdated = time.Now()

	if !partial.complete() {
		p.mu.Unlock()
		return nil
	}

	delete(bySender, frame.MsgID)
	complete := partial.buffer
	p.mu.Unlock()

	// Dispatch runs outside the lock, synchronously on this goroutine:
	// the partial has already been removed, so a panic or error inside
	// dispatch cannot corrupt the reassembly map.
	if p.dispatch != nil {
		p.dispatch(complete)
	}
	return nil
}

// CleanupAbandoned removes every partial message whose last chunk was
// received more than maxAge before now, and returns how many were
// removed.
func (p *Processor) CleanupAbandoned(now time.Time, maxAge time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for senderPID, bySender := range p.partials {
		for msgID, partial := range bySender {
			if now.Sub(partial.lastUpdated) > maxAge {
				delete(bySender, msgID)
				removed++
			}
		}
		if len(bySender) == 0 {
			delete(p.partials, senderPID)
		}
	}
	return removed
}

// PartialCount reports how many in-flight partial messages are tracked,
// summed across all senders. Used by tests and by the diagnostics
// surface.
func (p *Processor) PartialCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, bySender := range p.partials {
		count += len(bySender)
	}
	return count
}
