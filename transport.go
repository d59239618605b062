package wssession

import (
	"context"
	"net/http"
	"net/url"
)

type (
	// OpenConnectionParams holds everything the transport needs to dial.
	OpenConnectionParams struct {
		URL    url.URL
		Header http.Header
	}

	// Transport performs the socket I/O of a single connection attempt and reports its progress to
	// the EventHandler it was built with.
	Transport interface {
		// Connect starts the handshake and returns without waiting for it. The outcome is
		// delivered as OnOpen, OnClose or OnError.
		Connect(ctx context.Context, p OpenConnectionParams) error
		// Send hands m to the transport for writing. There is no delivery confirmation.
		Send(m Message) error
		// Close releases the connection, sending a close frame with code and reason when possible.
		// It must be safe to call more than once.
		Close(code int, reason string) error
	}

	TransportFactory func(handler EventHandler) Transport
)

type noopTransport struct{}

func (noopTransport) Connect(context.Context, OpenConnectionParams) error { return nil }

func (noopTransport) Send(Message) error { return nil }

func (noopTransport) Close(int, string) error { return nil }

// NoopTransportFactory builds transports that never report any event. Useful when the caller
// drives the EventHandler callbacks directly.
func NoopTransportFactory(EventHandler) Transport {
	return noopTransport{}
}
