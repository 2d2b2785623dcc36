package chunkproc

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/quantarax/otelcoordinator/internal/ipcqueue"
)

func drainAll(t *testing.T, p *Processor, deadline time.Time) {
	t.Helper()
	for {
		if err := p.TryReceive(deadline); err != nil {
			t.Fatalf("TryReceive: %v", err)
		}
		if time.Now().After(deadline) {
			return
		}
	}
}

// TestRoundTripBoundarySizes covers S1-S4 and the boundary-size property.
func TestRoundTripBoundarySizes(t *testing.T) {
	sizes := []int{1, 6, 4063, 4064, 4065, 8128, 8129, 17000}
	for _, size := range sizes {
		size := size
		t.Run("", func(t *testing.T) {
			queue := ipcqueue.NewMemQueue()
			defer queue.Close()

			var mu sync.Mutex
			var got []byte
			proc := NewProcessor(queue, func(buf []byte) {
				mu.Lock()
				got = append([]byte(nil), buf...)
				mu.Unlock()
			})

			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i)
			}

			sender := NewSender(1000, queue)
			if err := sender.SendPayload(payload); err != nil {
				t.Fatalf("SendPayload: %v", err)
			}

			deadline := time.Now().Add(50 * time.Millisecond)
			for {
				err := proc.TryReceive(deadline)
				if err != nil {
					t.Fatalf("TryReceive: %v", err)
				}
				mu.Lock()
				done := got != nil
				mu.Unlock()
				if done || time.Now().After(deadline) {
					break
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if !bytes.Equal(got, payload) {
				t.Fatalf("size=%d: round-trip mismatch (got %d bytes, want %d)", size, len(got), len(payload))
			}
			if proc.PartialCount() != 0 {
				t.Fatalf("size=%d: expected zero partials after completion, got %d", size, proc.PartialCount())
			}
		})
	}
}

// TestEmptyPayloadProducesNoChunk covers the empty-payload property.
func TestEmptyPayloadProducesNoChunk(t *testing.T) {
	queue := ipcqueue.NewMemQueue()
	defer queue.Close()

	dispatched := false
	proc := NewProcessor(queue, func(buf []byte) { dispatched = true })
	sender := NewSender(1, queue)

	if err := sender.SendPayload(nil); err != nil {
		t.Fatalf("SendPayload: %v", err)
	}

	_ = proc.TryReceive(time.Now().Add(20 * time.Millisecond))
	if dispatched {
		t.Fatal("dispatch called for empty payload")
	}
}

// TestConcurrentSendersDistinguishedByPID covers the concurrent-senders property.
func TestConcurrentSendersDistinguishedByPID(t *testing.T) {
	queue := ipcqueue.NewMemQueue()
	defer queue.Close()

	results := make(map[uint32][]byte)
	var mu sync.Mutex
	proc := NewProcessor(queue, func(buf []byte) {
		mu.Lock()
		defer mu.Unlock()
		// the first byte of the payload encodes which sender sent it in this test
		results[uint32(buf[0])] = append([]byte(nil), buf...)
	})

	payloadFor := func(pid byte) []byte {
		p := make([]byte, 9000)
		p[0] = pid
		return p
	}

	senderA := NewSender(10, queue)
	senderB := NewSender(20, queue)

	// Interleave sends from two senders by hand so their chunks land
	// in the queue interleaved rather than back-to-back.
	payloadA := payloadFor(1)
	payloadB := payloadFor(2)

	for offset := 0; offset < 9000; offset += ipcqueue.PayloadBytes {
		end := offset + ipcqueue.PayloadBytes
		if end > 9000 {
			end = 9000
		}
		frameA := encodeChunk(t, senderA, 0, offset, 9000, payloadA[offset:end])
		frameB := encodeChunk(t, senderB, 0, offset, 9000, payloadB[offset:end])
		mustSend(t, queue, frameA)
		mustSend(t, queue, frameB)
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for len(results) < 2 && !time.Now().After(deadline) {
		_ = proc.TryReceive(deadline)
	}

	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(results[1], payloadA) {
		t.Fatal("sender A payload reassembled incorrectly")
	}
	if !bytes.Equal(results[2], payloadB) {
		t.Fatal("sender B payload reassembled incorrectly")
	}
}

// TestCleanupAbandoned covers S5.
func TestCleanupAbandoned(t *testing.T) {
	queue := ipcqueue.NewMemQueue()
	defer queue.Close()

	proc := NewProcessor(queue, func(buf []byte) {})

	senderOld := NewSender(1, queue)
	senderNew := NewSender(2, queue)

	// Send only the first of 3 chunks for each, so both stay partial.
	oldPayload := make([]byte, ipcqueue.PayloadBytes*3)
	newPayload := make([]byte, ipcqueue.PayloadBytes*3)

	mustSend(t, queue, encodeChunk(t, senderOld, 0, 0, uint64(len(oldPayload)), oldPayload[:ipcqueue.PayloadBytes]))
	deadline := time.Now().Add(20 * time.Millisecond)
	_ = proc.TryReceive(deadline)

	t0 := time.Now()

	mustSend(t, queue, encodeChunk(t, senderNew, 0, 0, uint64(len(newPayload)), newPayload[:ipcqueue.PayloadBytes]))
	deadline = time.Now().Add(20 * time.Millisecond)
	_ = proc.TryReceive(deadline)

	if removed := proc.CleanupAbandoned(t0.Add(-time.Millisecond), time.Hour); removed != 0 {
		t.Fatalf("expected nothing stale yet, removed %d", removed)
	}

	if proc.PartialCount() != 2 {
		t.Fatalf("expected 2 partials, got %d", proc.PartialCount())
	}

	if removed := proc.CleanupAbandoned(time.Now().Add(time.Hour), time.Second); removed != 2 {
		t.Fatalf("expected both partials removed, removed %d", removed)
	}
	if proc.PartialCount() != 0 {
		t.Fatalf("expected zero partials after full GC, got %d", proc.PartialCount())
	}
}

func TestMalformedAndProtocolErrors(t *testing.T) {
	queue := ipcqueue.NewMemQueue()
	defer queue.Close()
	proc := NewProcessor(queue, func(buf []byte) {})

	// Too-short raw frame.
	short := make([]byte, 4)
	mustSend(t, queue, short)
	if err := proc.TryReceive(time.Now().Add(20 * time.Millisecond)); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}

	// Out-of-order offset.
	sender := NewSender(5, queue)
	bad := ipcqueue.Frame{SenderPID: 5, MsgID: 1, TotalSize: 100, Offset: 50, Payload: make([]byte, 50)}
	mustSend(t, queue, bad.Encode())
	_ = sender
	if err := proc.TryReceive(time.Now().Add(20 * time.Millisecond)); err != ErrProtocolViolation {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}

	// Overflow: offset exceeds total_size (would underflow if computed naively).
	overflow := ipcqueue.Frame{SenderPID: 6, MsgID: 1, TotalSize: 10, Offset: 20, Payload: make([]byte, 20)}
	mustSend(t, queue, overflow.Encode())
	if err := proc.TryReceive(time.Now().Add(20 * time.Millisecond)); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func encodeChunk(t *testing.T, s *Sender, _ int, offset int, total uint64, payload []byte) []byte {
	t.Helper()
	return ipcqueue.Frame{
		SenderPID: s.selfPID,
		MsgID:     0,
		TotalSize: total,
		Offset:    uint64(offset),
		Payload:   payload,
	}.Encode()
}

func mustSend(t *testing.T, q ipcqueue.Queue, buf []byte) {
	t.Helper()
	status, err := q.TrySend(buf, 0)
	if err != nil || status != ipcqueue.StatusOK {
		t.Fatalf("TrySend: status=%v err=%v", status, err)
	}
}
