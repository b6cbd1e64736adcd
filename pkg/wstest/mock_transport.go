// Package wstest provides in-memory wsconn.Transport test doubles,
// adapted from golivekit's pkg/testing MockSocket (which recorded sent
// messages for a core.Transport) and ChaosTransport (which injected
// latency/drops/errors around one).
package wstest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/renatosilva/wsconn/pkg/wsconn"
)

// SentFrame records one frame handed to MockTransport.Send.
type SentFrame struct {
	Payload []byte
	Kind    wsconn.MessageKind
}

// MockTransport is a wsconn.Transport backed entirely by in-process
// channels: Receive blocks on a scripted queue of frames/errors fed by
// Push/PushError/PushClose, and Send records everything it is given
// instead of writing to a socket.
type MockTransport struct {
	ID string

	mu       sync.Mutex
	sent     []SentFrame
	state    wsconn.ConnState
	sendErr  error
	closeErr error

	inbox chan inboxItem
}

type inboxItem struct {
	kind        wsconn.MessageKind
	payload     []byte
	closeCode   wsconn.StatusCode
	closeReason string
	err         error
}

// NewMockTransport creates a MockTransport in the Open state with a
// generated ID and an unbounded-in-practice inbox.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		ID:    "mock-" + uuid.New().String()[:8],
		state: wsconn.StateOpen,
		inbox: make(chan inboxItem, 256),
	}
}

// NewMockFactory returns a wsconn.TransportFactory that calls next on
// every dial, regardless of the requested URL, and hands back whatever
// MockTransport or error it returns. Useful for exercising a Session's
// reconnection behavior against one scripted connection at a time.
func NewMockFactory(next func() (*MockTransport, error)) wsconn.TransportFactory {
	return func(ctx context.Context, url string) (wsconn.Transport, error) {
		return next()
	}
}

// Send records the frame and returns the error last set by SetSendErr,
// if any.
func (m *MockTransport) Send(ctx context.Context, payload []byte, kind wsconn.MessageKind, endOfMessage bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.sent = append(m.sent, SentFrame{Payload: cp, Kind: kind})
	return nil
}

// Receive blocks until a frame is pushed via Push/PushError/PushClose,
// or ctx is done.
func (m *MockTransport) Receive(ctx context.Context, buf []byte) (wsconn.ReceivedFrame, error) {
	select {
	case item, ok := <-m.inbox:
		if !ok {
			return wsconn.ReceivedFrame{}, context.Canceled
		}
		if item.err != nil {
			return wsconn.ReceivedFrame{}, item.err
		}
		if item.kind == wsconn.MessageClose {
			return wsconn.ReceivedFrame{
				Kind:        wsconn.MessageClose,
				CloseCode:   item.closeCode,
				CloseReason: item.closeReason,
			}, nil
		}
		n := copy(buf, item.payload)
		return wsconn.ReceivedFrame{Kind: item.kind, N: n, EndOfMessage: true}, nil
	case <-ctx.Done():
		return wsconn.ReceivedFrame{}, ctx.Err()
	}
}

func (m *MockTransport) Close(ctx context.Context, status wsconn.StatusCode, reason string) error {
	m.mu.Lock()
	err := m.closeErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.setState(wsconn.StateClosed)
	return nil
}

func (m *MockTransport) CloseOutput(ctx context.Context, status wsconn.StatusCode, reason string) error {
	m.setState(wsconn.StateCloseSent)
	return nil
}

func (m *MockTransport) Abort() {
	m.setState(wsconn.StateAborted)
}

func (m *MockTransport) State() wsconn.ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockTransport) setState(s wsconn.ConnState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Push queues a text or binary frame to be returned by the next Receive.
func (m *MockTransport) Push(kind wsconn.MessageKind, payload []byte) {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.inbox <- inboxItem{kind: kind, payload: cp}
}

// PushClose queues a close frame to be returned by the next Receive.
func (m *MockTransport) PushClose(code wsconn.StatusCode, reason string) {
	m.inbox <- inboxItem{kind: wsconn.MessageClose, closeCode: code, closeReason: reason}
}

// PushError queues err to be returned by the next Receive, simulating
// an abrupt I/O failure.
func (m *MockTransport) PushError(err error) {
	m.inbox <- inboxItem{err: err}
}

// SetSendErr makes every subsequent Send fail with err until cleared
// with SetSendErr(nil).
func (m *MockTransport) SetSendErr(err error) {
	m.mu.Lock()
	m.sendErr = err
	m.mu.Unlock()
}

// SetCloseErr makes every subsequent Close fail with err until cleared
// with SetCloseErr(nil), without changing the recorded state.
func (m *MockTransport) SetCloseErr(err error) {
	m.mu.Lock()
	m.closeErr = err
	m.mu.Unlock()
}

// SentFrames returns a snapshot of every frame recorded by Send.
func (m *MockTransport) SentFrames() []SentFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentFrame, len(m.sent))
	copy(out, m.sent)
	return out
}
