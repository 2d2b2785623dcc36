package chunkproc

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/quantarax/otelcoordinator/internal/ipcqueue"
)

// maxSendRetries bounds the number of backoff attempts TrySend makes
// against a saturated queue before a chunk is considered failed.
const maxSendRetries = 5

// Sender splits outbound payloads into ipcqueue.Frame chunks. It is
// owned by a single worker process and is not safe for concurrent use:
// nextMsgID is a plain counter per the "single-threaded sender" note in
// the framing protocol, accessed from at most one goroutine (typically
// the periodic task executor's).
type Sender struct {
	selfPID   uint32
	queue     ipcqueue.Queue
	nextMsgID uint64
	limiter   *rate.Limiter
}

// NewSender constructs a Sender bound to selfPID, writing frames to queue.
func NewSender(selfPID uint32, queue ipcqueue.Queue) *Sender {
	return &Sender{
		selfPID: selfPID,
		queue:   queue,
		// Backoff pacing for retries against a momentarily full queue;
		// generous enough that a brief coordinator stall doesn't burn
		// the retry budget in a tight spin.
		limiter: rate.NewLimiter(rate.Every(2*time.Millisecond), 1),
	}
}

// SendPayload chunks payload into PayloadBytes-sized frames and enqueues
// each one. A zero-length payload sends no chunk and returns nil. On
// persistent queue saturation, SendPayload returns ErrSendFailed; any
// chunks already enqueued for this msg_id are orphaned and will be
// reclaimed by the receiver's GC.
func (s *Sender) SendPayload(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	msgID := s.nextMsgID
	s.nextMsgID++

	total := uint64(len(payload))
	for offset := uint64(0); offset < total; offset += ipcqueue.PayloadBytes {
		end := offset + ipcqueue.PayloadBytes
		if end > total {
			end = total
		}
		frame := ipcqueue.Frame{
			SenderPID: s.selfPID,
			MsgID:     msgID,
			TotalSize: total,
			Offset:    offset,
			Payload:   payload[offset:end],
		}
		if err := s.sendWithRetry(frame.Encode()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) sendWithRetry(buf []byte) error {
	for attempt := 0; attempt < maxSendRetries; attempt++ {
		status, err := s.queue.TrySend(buf, 0)
		if err != nil {
			return err
		}
		if status == ipcqueue.StatusOK {
			return nil
		}
		_ = s.limiter.Wait(context.Background())
	}
	return ErrSendFailed
}
