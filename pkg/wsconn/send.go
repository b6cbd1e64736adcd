package wsconn

import (
	"context"

	"github.com/renatosilva/wsconn/pkg/logging"
)

// sendWorker is the handler function driving both textQueue and
// binaryQueue: it serializes access to the Transport via sendLock so a
// queued send never races with a concurrent SendInstant call.
func (s *Session) sendWorker(item outboundItem) {
	sc := s.currentScope()
	if sc == nil {
		return
	}

	if err := s.sendLock.Lock(sc.ctx); err != nil {
		return
	}
	defer s.sendLock.Unlock()

	handle := s.transport.Load()
	if handle == nil || handle.transport.State() != StateOpen {
		s.log.Debug("dropping queued send: not connected", logging.String("kind", item.kind.String()))
		return
	}
	if err := handle.transport.Send(sc.ctx, item.payload, item.kind, true); err != nil {
		s.log.Error("queued send failed", logging.Err(err), logging.String("kind", item.kind.String()))
	}
}

func (s *Session) sendInstant(ctx context.Context, payload []byte, kind MessageKind) error {
	if err := s.sendLock.Lock(ctx); err != nil {
		return err
	}
	defer s.sendLock.Unlock()

	handle := s.transport.Load()
	if handle == nil || handle.transport.State() != StateOpen {
		return &SendFailedError{Cause: ErrNotConnected}
	}
	if err := handle.transport.Send(ctx, payload, kind, true); err != nil {
		return &SendFailedError{Cause: err}
	}
	return nil
}
