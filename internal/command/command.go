// Package command decodes reassembled message bytes into typed commands
// and dispatches them to the HTTP transport or the worker registry.
package command

import "github.com/quantarax/otelcoordinator/internal/transport"

// Kind discriminates the wire envelope. Unknown kinds are ignored by
// both Decode and Dispatch, which is how the protocol stays
// forward-compatible with workers running a newer schema.
type Kind uint8

const (
	KindEstablishConnection Kind = iota + 1
	KindSendEndpointPayload
	KindWorkerStarted
	KindWorkerGoingToShutdown
)

// Command is implemented by every decodable variant.
type Command interface {
	Kind() Kind
}

// EstablishConnection asks the HTTP transport to open or reconfigure a
// connection to an endpoint.
type EstablishConnection struct {
	URL          string
	EndpointHash string
	ContentType  string
	Headers      []transport.Header
	TimeoutMS    int
	MaxRetries   int
	RetryDelayMS int
	SSL          transport.SSLOptions
}

func (EstablishConnection) Kind() Kind { return KindEstablishConnection }

// SendEndpointPayload asks the HTTP transport to deliver payload to an
// already-established endpoint.
type SendEndpointPayload struct {
	EndpointHash string
	Payload      []byte
}

func (SendEndpointPayload) Kind() Kind { return KindSendEndpointPayload }

// WorkerStarted announces a worker entering service.
type WorkerStarted struct {
	PID  int
	PPID int
}

func (WorkerStarted) Kind() Kind { return KindWorkerStarted }

// WorkerGoingToShutdown announces a worker leaving service.
type WorkerGoingToShutdown struct {
	PID  int
	PPID int
}

func (WorkerGoingToShutdown) Kind() Kind { return KindWorkerGoingToShutdown }
