// Package ipcqueue implements the fixed-slot bounded IPC queue that
// carries chunk frames between workers and the coordinator.
package ipcqueue

import (
	"encoding/binary"
	"errors"
)

const (
	// SlotBytes is the fixed size of a queue slot on the wire.
	SlotBytes = 4096
	// SLOTS is the queue capacity in slots.
	SLOTS = 100
	// headerSize is the encoded size of everything in Frame but Payload:
	// sender_pid(4) + msg_id(8) + total_size(8) + offset(8), padded with
	// 4 reserved zero bytes to a 32-byte aligned header so PayloadBytes
	// comes out to the wire protocol's 4064-byte chunk size.
	headerSize = 4 + 8 + 8 + 8 + 4
	// PayloadBytes is the usable chunk payload capacity per frame.
	PayloadBytes = SlotBytes - headerSize
)

// ErrShortFrame is returned when a byte slice is too small to hold a frame header.
var ErrShortFrame = errors.New("ipcqueue: frame shorter than header size")

// Frame is the fixed 4096-byte wire record described in the chunk
// framing protocol: sender_pid, msg_id, total_size, offset, payload.
type Frame struct {
	SenderPID uint32
	MsgID     uint64
	TotalSize uint64
	Offset    uint64
	Payload   []byte // meaningful length is min(TotalSize-Offset, PayloadBytes)
}

// Encode serializes f into a SlotBytes-sized buffer in native (little-endian)
// byte order. The unused tail of the payload region is zero-filled.
func (f Frame) Encode() []byte {
	buf := make([]byte, SlotBytes)
	binary.LittleEndian.PutUint32(buf[0:4], f.SenderPID)
	binary.LittleEndian.PutUint64(buf[4:12], f.MsgID)
	binary.LittleEndian.PutUint64(buf[12:20], f.TotalSize)
	binary.LittleEndian.PutUint64(buf[20:28], f.Offset)
	copy(buf[headerSize:], f.Payload)
	return buf
}

// DecodeFrame parses a raw slot image into a Frame. Payload is the full
// raw payload region exactly as received (zero-padded tail included,
// never more than PayloadBytes); callers MUST slice it down using
// TotalSize and Offset rather than trusting its length, since a
// corrupt or hostile sender can set Offset beyond TotalSize. Clipping
// here instead of in the caller would silently mask that condition.
func DecodeFrame(raw []byte) (Frame, error) {
	if len(raw) < headerSize {
		return Frame{}, ErrShortFrame
	}
	f := Frame{
		SenderPID: binary.LittleEndian.Uint32(raw[0:4]),
		MsgID:     binary.LittleEndian.Uint64(raw[4:12]),
		TotalSize: binary.LittleEndian.Uint64(raw[12:20]),
		Offset:    binary.LittleEndian.Uint64(raw[20:28]),
	}
	remaining := raw[headerSize:]
	n := len(remaining)
	if n > PayloadBytes {
		n = PayloadBytes
	}
	f.Payload = append([]byte(nil), remaining[:n]...)
	return f, nil
}

// ChunkLen returns how many bytes of Payload are meaningful for this
// frame, per min(TotalSize-Offset, PayloadBytes). ok is false when
// Offset exceeds TotalSize, which the caller must treat as an overflow
// rather than let the subtraction underflow.
func (f Frame) ChunkLen() (n uint64, ok bool) {
	if f.Offset > f.TotalSize {
		return 0, false
	}
	n = f.TotalSize - f.Offset
	if n > PayloadBytes {
		n = PayloadBytes
	}
	return n, true
}
