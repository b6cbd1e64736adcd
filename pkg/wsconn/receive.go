package wsconn

import (
	"time"

	"github.com/renatosilva/wsconn/pkg/logging"
)

// receiveBufferSize bounds a single frame read. A message larger than
// this is truncated to the buffer's capacity by the Transport.
const receiveBufferSize = 50 * 1024 * 1024

// ReceiveBufferSize returns the fixed size of the per-loop read buffer,
// so a Transport implementation can size its own read limit (e.g. a
// WebSocket max-frame-size setting) to match.
func ReceiveBufferSize() int64 { return receiveBufferSize }

// receiveLoop owns one Transport's read side for the lifetime of that
// connection: one loop per transportHandle, exiting as soon as the
// transport closes, the connection scope is cancelled, or an
// unexpected read error occurs.
type receiveLoop struct {
	session *Session
	handle  *transportHandle
	buf     []byte
}

func newReceiveLoop(s *Session, h *transportHandle) *receiveLoop {
	return &receiveLoop{session: s, handle: h, buf: make([]byte, receiveBufferSize)}
}

func (r *receiveLoop) run() {
	s := r.session
	ctx := r.handle.scopeCtx

	for ctx.Err() == nil && r.handle.transport.State() == StateOpen {
		frame, err := r.handle.transport.Receive(ctx, r.buf)
		if err != nil {
			s.log.Debug("receive loop exiting", logging.Err(err))
			break
		}

		if frame.Kind == MessageClose {
			s.receiveQueue.add(receiveItem{
				kind:        MessageClose,
				closeCode:   frame.CloseCode,
				closeReason: frame.CloseReason,
			})
			break
		}

		payload := make([]byte, frame.N)
		copy(payload, r.buf[:frame.N])
		s.lastReceivedUnixNano.Store(time.Now().UnixNano())
		s.receiveQueue.add(receiveItem{
			kind:         frame.Kind,
			payload:      payload,
			endOfMessage: frame.EndOfMessage,
		})
	}

	if s.isStarted.Load() && s.isReconnectionEnabled.Load() {
		delay := s.reconnectDelay(s.cfg.LostReconnectTimeout)
		s.triggerReconnect(r.handle, ReconnectionLost, delay, errReceiveLoopExited)
	}
}
