package command

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

// ErrDecode wraps any failure to parse the gob-encoded body of a
// recognized command kind. It is distinct from an unknown Kind, which
// is not an error: the dispatcher just logs it at warning and moves on,
// per the forward-compatibility requirement that unrecognized variants
// are ignored rather than treated as corrupt.
var ErrDecode = errors.New("command: decode error")

// UnknownCommand is returned by Decode when the envelope's Kind byte
// does not match any variant this build knows about.
type UnknownCommand struct {
	RawKind Kind
}

func (UnknownCommand) Kind() Kind { return 0 }

// Encode serializes cmd as a one-byte Kind discriminant followed by its
// gob-encoded body. gob is used as the forward-compatible wire codec in
// place of the unspecified schema-compiled format the protocol leaves
// open, per spec.md §3 and §6: it tolerates additional fields added to
// a struct as long as field names are stable, which is enough to let a
// newer sender and an older coordinator interoperate on known variants.
func Encode(cmd Command) ([]byte, error) {
	var body bytes.Buffer
	enc := gob.NewEncoder(&body)

	// Encode the concrete struct directly rather than the Command
	// interface value, so decoding a known Kind never depends on the
	// sender and receiver sharing a gob type registry.
	var err error
	switch v := cmd.(type) {
	case EstablishConnection:
		err = enc.Encode(v)
	case SendEndpointPayload:
		err = enc.Encode(v)
	case WorkerStarted:
		err = enc.Encode(v)
	case WorkerGoingToShutdown:
		err = enc.Encode(v)
	default:
		return nil, fmt.Errorf("%w: unencodable command type %T", ErrDecode, cmd)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := make([]byte, 0, body.Len()+1)
	out = append(out, byte(cmd.Kind()))
	out = append(out, body.Bytes()...)
	return out, nil
}

// Decode parses a reassembled message body into a Command. A recognized
// Kind with a malformed body yields ErrDecode; an unrecognized Kind
// yields UnknownCommand with no error, since that case is not a
// decoding failure — it is the documented forward-compatibility path.
func Decode(buf []byte) (Command, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("%w: empty message", ErrDecode)
	}
	kind := Kind(buf[0])
	body := buf[1:]

	var target any
	switch kind {
	case KindEstablishConnection:
		target = new(EstablishConnection)
	case KindSendEndpointPayload:
		target = new(SendEndpointPayload)
	case KindWorkerStarted:
		target = new(WorkerStarted)
	case KindWorkerGoingToShutdown:
		target = new(WorkerGoingToShutdown)
	default:
		return UnknownCommand{RawKind: kind}, nil
	}

	dec := gob.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	switch kind {
	case KindEstablishConnection:
		return *target.(*EstablishConnection), nil
	case KindSendEndpointPayload:
		return *target.(*SendEndpointPayload), nil
	case KindWorkerStarted:
		return *target.(*WorkerStarted), nil
	case KindWorkerGoingToShutdown:
		return *target.(*WorkerGoingToShutdown), nil
	}
	panic("unreachable")
}
