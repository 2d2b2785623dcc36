// Package transport declares the interface contracts for collaborators
// that are explicitly out of scope for the coordinator subsystem: the
// HTTP transport that owns outbound connections, and the OpAMP client
// that receives remote configuration. Neither is implemented here; the
// coordinator only ever holds one of these interfaces.
package transport

// SSLOptions mirrors the ssl sub-record of EstablishConnection.
type SSLOptions struct {
	InsecureSkipVerify bool
	CAInfo             string
	Cert               string
	CertKey            string
	CertKeyPassword    string
}

// Header is one name/value pair from EstablishConnection.headers.
type Header struct {
	Name  string
	Value string
}

// HTTPTransport owns outbound HTTP connections on behalf of every
// endpoint the coordinator has been told about. Its retry machinery and
// connection pooling live entirely outside this subsystem.
type HTTPTransport interface {
	// InitializeConnection configures (or reconfigures) the named
	// endpoint identified by endpointHash.
	InitializeConnection(
		url string,
		endpointHash string,
		contentType string,
		headers []Header,
		timeoutMS int,
		maxRetries int,
		retryDelayMS int,
		ssl SSLOptions,
	) error
	// Enqueue hands payload to the transport for delivery to the
	// endpoint identified by endpointHash. Implementations are expected
	// to take ownership of payload without copying where possible.
	Enqueue(endpointHash string, payload []byte) error
}

// OpAMPClient is the lifecycle surface of the remote config client:
// starting and stopping its communication. It has no method that
// delivers configuration files; those reach the providers through
// config.Storage.ApplyFiles, where each config.Provider parses only the
// filename it opts in to.
type OpAMPClient interface {
	StartCommunication() error
	Stop() error
}
