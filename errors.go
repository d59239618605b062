package wssession

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

var (
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("timed out waiting for connection")
	ErrNotOpen          = errors.New("session is not open")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrRateLimit        = errors.New("rate limit exceeded")
)

// TransportError carries an error reported by the transport through OnError. It is not
// classified any further.
type TransportError struct {
	err error
	url url.URL
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s to %s", e.err, e.url.String())
}

func (e *TransportError) Unwrap() error { return e.err }

func wrapTransportError(err error, url url.URL) *TransportError {
	if err == nil {
		return nil
	}
	return &TransportError{
		err: err,
		url: url,
	}
}

// ConnectionFailedError is the outcome of AwaitOpen when the handshake did not complete. It
// matches ErrConnectionFailed and also unwraps to its cause.
type ConnectionFailedError struct {
	cause error
}

func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConnectionFailed, e.cause)
}

func (e *ConnectionFailedError) Unwrap() []error {
	return []error{ErrConnectionFailed, e.cause}
}

func newConnectionFailedError(cause error) *ConnectionFailedError {
	return &ConnectionFailedError{cause: cause}
}
