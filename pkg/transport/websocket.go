// Package transport is the default wsconn.Transport implementation,
// wrapping github.com/coder/websocket. It is adapted from golivekit's
// pkg/transport WebSocketTransport, which wrapped the same library to
// serve upgraded server connections; this version dials outbound
// client connections instead.
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/renatosilva/wsconn/pkg/wsconn"
)

// Config configures Dial.
type Config struct {
	// Header is sent with the opening HTTP handshake request.
	Header http.Header
	// CompressionMode controls per-message deflate negotiation.
	CompressionMode websocket.CompressionMode
	// HandshakeTimeout bounds the opening handshake. Zero means no
	// additional timeout beyond the ctx passed to the factory.
	HandshakeTimeout time.Duration
}

// DefaultConfig returns a Config with a 15s handshake timeout and no
// compression negotiation.
func DefaultConfig() Config {
	return Config{HandshakeTimeout: 15 * time.Second}
}

// Dial returns a wsconn.TransportFactory that dials url with
// github.com/coder/websocket using cfg.
func Dial(cfg Config) wsconn.TransportFactory {
	return func(ctx context.Context, url string) (wsconn.Transport, error) {
		dialCtx := ctx
		if cfg.HandshakeTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
			defer cancel()
		}

		conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
			HTTPHeader:      cfg.Header,
			CompressionMode: cfg.CompressionMode,
		})
		if err != nil {
			return nil, err
		}

		// 50 MiB matches the receive loop's own read buffer; anything
		// larger is a protocol violation for this client, not a
		// message it should try to reassemble.
		conn.SetReadLimit(wsconn.ReceiveBufferSize())

		return newWebSocketTransport(conn), nil
	}
}

type webSocketTransport struct {
	conn *websocket.Conn

	mu    sync.Mutex
	state wsconn.ConnState
}

func newWebSocketTransport(conn *websocket.Conn) *webSocketTransport {
	return &webSocketTransport{conn: conn, state: wsconn.StateOpen}
}

func (t *webSocketTransport) Send(ctx context.Context, payload []byte, kind wsconn.MessageKind, endOfMessage bool) error {
	typ := websocket.MessageBinary
	if kind == wsconn.MessageText {
		typ = websocket.MessageText
	}
	return t.conn.Write(ctx, typ, payload)
}

func (t *webSocketTransport) Receive(ctx context.Context, buf []byte) (wsconn.ReceivedFrame, error) {
	typ, r, err := t.conn.Reader(ctx)
	if err != nil {
		if code := websocket.CloseStatus(err); code != -1 {
			t.setState(wsconn.StateClosed)
			reason := ""
			var ce websocket.CloseError
			if errors.As(err, &ce) {
				reason = ce.Reason
			}
			return wsconn.ReceivedFrame{
				Kind:        wsconn.MessageClose,
				CloseCode:   wsconn.StatusCode(code),
				CloseReason: reason,
			}, nil
		}
		return wsconn.ReceivedFrame{}, err
	}

	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil, errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		// nil: buf filled exactly (or the message is larger than buf
		// and was truncated); the EOF variants mean the message ended
		// before filling buf, which is the common case.
	default:
		return wsconn.ReceivedFrame{}, err
	}

	kind := wsconn.MessageBinary
	if typ == websocket.MessageText {
		kind = wsconn.MessageText
	}
	return wsconn.ReceivedFrame{Kind: kind, N: n, EndOfMessage: true}, nil
}

func (t *webSocketTransport) Close(ctx context.Context, status wsconn.StatusCode, reason string) error {
	t.setState(wsconn.StateCloseSent)
	err := t.conn.Close(websocket.StatusCode(status), reason)
	t.setState(wsconn.StateClosed)
	return err
}

// CloseOutput sends a close frame without a distinct half-close
// primitive: github.com/coder/websocket does not expose one beyond
// Close itself, so this sends and closes the same way Close does; the
// only difference is that State reports StateCloseSent afterwards
// rather than StateClosed. A transport that
// needs true RFC 6455 half-close semantics (keep reading after sending
// the close frame) must implement wsconn.Transport directly against a
// lower-level library.
func (t *webSocketTransport) CloseOutput(ctx context.Context, status wsconn.StatusCode, reason string) error {
	t.setState(wsconn.StateCloseSent)
	return t.conn.Close(websocket.StatusCode(status), reason)
}

func (t *webSocketTransport) Abort() {
	t.setState(wsconn.StateAborted)
	t.conn.CloseNow()
}

func (t *webSocketTransport) State() wsconn.ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *webSocketTransport) setState(s wsconn.ConnState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}
