package wsconn

import "context"

// MessageKind identifies the payload type carried by a frame.
type MessageKind int

const (
	// MessageText marks a frame whose payload is valid UTF-8 text.
	MessageText MessageKind = iota
	// MessageBinary marks a frame whose payload is opaque bytes.
	MessageBinary
	// MessageClose marks a control frame that closed the connection;
	// ReceivedFrame.CloseCode/CloseReason carry the close details and
	// N/EndOfMessage are meaningless for this kind.
	MessageClose
)

func (k MessageKind) String() string {
	switch k {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	case MessageClose:
		return "close"
	default:
		return "unknown"
	}
}

// ConnState is the lifecycle state of a Transport, loosely mirroring
// the states a WebSocket connection passes through per RFC 6455.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateOpen
	StateCloseSent
	StateCloseReceived
	StateClosed
	StateAborted
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateCloseSent:
		return "close_sent"
	case StateCloseReceived:
		return "close_received"
	case StateClosed:
		return "closed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// StatusCode is a WebSocket close status code (RFC 6455 section 7.4).
type StatusCode int

const (
	StatusNormalClosure   StatusCode = 1000
	StatusGoingAway       StatusCode = 1001
	StatusProtocolError   StatusCode = 1002
	StatusUnsupportedData StatusCode = 1003
	StatusNoStatusRcvd    StatusCode = 1005
	StatusAbnormalClosure StatusCode = 1006
	StatusInvalidFramePayloadData StatusCode = 1007
	StatusPolicyViolation StatusCode = 1008
	StatusMessageTooBig   StatusCode = 1009
	StatusInternalError   StatusCode = 1011
	StatusServiceRestart  StatusCode = 1012
	StatusTryAgainLater   StatusCode = 1013
)

// ReceivedFrame describes one frame read off a Transport.
type ReceivedFrame struct {
	Kind         MessageKind
	N            int
	EndOfMessage bool
	CloseCode    StatusCode
	CloseReason  string
}

// Transport is the full-duplex WebSocket frame channel a Session drives.
// A Session never dials a URL, performs a WebSocket handshake, or frames
// bytes on the wire itself — it only calls Transport methods. The
// default implementation in package transport wraps
// github.com/coder/websocket; tests substitute pkg/wstest's in-memory
// implementations.
//
// Implementations must be safe for concurrent use: Send may be called
// from a worker goroutine while Receive is called from the receive
// loop and Abort from a reconnect trigger, all at once.
type Transport interface {
	// Send writes one frame. endOfMessage marks the final fragment of
	// a logical message; callers in this package always pass true,
	// since wsconn does not fragment outbound messages itself.
	Send(ctx context.Context, payload []byte, kind MessageKind, endOfMessage bool) error

	// Receive blocks until a frame arrives, writing its payload into
	// buf and reporting how many bytes were written. A message larger
	// than len(buf) is truncated to buf's capacity.
	Receive(ctx context.Context, buf []byte) (ReceivedFrame, error)

	// Close performs a clean bidirectional close handshake: it sends a
	// close frame and waits (bounded by ctx) for the peer's close
	// frame in acknowledgement.
	Close(ctx context.Context, status StatusCode, reason string) error

	// CloseOutput sends a close frame but leaves the read side open,
	// for responding to a peer-initiated close without racing the
	// receive loop that is still draining the peer's close frame.
	CloseOutput(ctx context.Context, status StatusCode, reason string) error

	// Abort tears the connection down immediately without a close
	// handshake. It must be safe to call at any time, including
	// concurrently with an in-flight Send or Receive, and must cause
	// them to return promptly with an error.
	Abort()

	// State reports the transport's current lifecycle state.
	State() ConnState
}

// TransportFactory establishes a new Transport for url. It is called
// once per connection attempt (initial connect and every reconnect);
// ctx is scoped to the session's current connection attempt and is
// cancelled if the attempt is superseded before it completes.
type TransportFactory func(ctx context.Context, url string) (Transport, error)
