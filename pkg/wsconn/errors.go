package wsconn

import "errors"

// Sentinel errors. ErrAlreadyDisposed and ErrInvalidInput signal a
// programming error by the caller, never a network condition, and are
// never retried or swallowed. ErrNotConnected reports that no open
// Transport was available for a SendInstant call.
var (
	ErrAlreadyDisposed = errors.New("wsconn: session is disposed")
	ErrInvalidInput    = errors.New("wsconn: invalid input")
	ErrNotConnected    = errors.New("wsconn: transport is not connected")

	errReceiveLoopExited = errors.New("wsconn: receive loop exited")
)

// ConnectFailedError wraps a failure to establish a Transport.
type ConnectFailedError struct {
	Cause error
}

func (e *ConnectFailedError) Error() string { return "wsconn: connect failed: " + e.Cause.Error() }
func (e *ConnectFailedError) Unwrap() error { return e.Cause }

// SendFailedError wraps a failure to write a frame via SendInstant.
type SendFailedError struct {
	Cause error
}

func (e *SendFailedError) Error() string { return "wsconn: send failed: " + e.Cause.Error() }
func (e *SendFailedError) Unwrap() error { return e.Cause }

// CloseFailedError wraps a failure during the close handshake.
type CloseFailedError struct {
	Cause error
}

func (e *CloseFailedError) Error() string { return "wsconn: close failed: " + e.Cause.Error() }
func (e *CloseFailedError) Unwrap() error { return e.Cause }
