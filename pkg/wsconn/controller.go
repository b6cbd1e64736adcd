package wsconn

import (
	"context"
	"errors"
	"time"

	"github.com/renatosilva/wsconn/pkg/logging"
)

// Start begins the session: it performs one connection attempt and
// returns once that attempt has either succeeded or been scheduled for
// retry. A failed initial attempt never surfaces as an error from
// Start; subscribe to DisconnectionHappened to observe it. Calling
// Start on an already-started session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	return s.start(ctx, false)
}

// StartOrFail is Start, except a failed initial connection attempt is
// returned as an error instead of being scheduled for a silent retry.
func (s *Session) StartOrFail(ctx context.Context) error {
	return s.start(ctx, true)
}

func (s *Session) start(ctx context.Context, failFast bool) error {
	if s.isDisposing.Load() {
		return ErrAlreadyDisposed
	}
	if !s.isStarted.CompareAndSwap(false, true) {
		return nil
	}

	s.session.Store(newScope(s.totalCtx))
	return s.startClient(ReconnectionInitial, failFast)
}

// startClient dials a fresh Transport under the current connection
// scope. On success it installs the transport, starts its receive
// loop, arms the watchdog, and publishes ReconnectionHappened. On
// failure it publishes DisconnectionHappened(Error) and, unless the
// subscriber cancelled reconnection or failFast was requested, schedules
// a retry after ErrorReconnectTimeout in the background so this call
// itself never blocks for that long.
func (s *Session) startClient(rtype ReconnectionType, failFast bool) error {
	s.watchdog.disarm()

	sc := s.currentScope()

	connect := func() (Transport, error) { return s.factory(sc.ctx, s.URL()) }

	var t Transport
	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(func() error {
			var e error
			t, e = connect()
			return e
		})
	} else {
		t, err = connect()
	}

	if err != nil {
		s.recordFailure()
		connErr := &ConnectFailedError{Cause: err}
		info := &DisconnectionInfo{Type: DisconnectionError, Err: connErr}
		s.publishDisconnection(info)

		if info.CancelReconnection {
			return nil
		}
		if failFast {
			return connErr
		}

		delay := s.reconnectDelay(s.cfg.ErrorReconnectTimeout)
		if s.cfg.ErrorReconnectTimeout <= 0 {
			return nil
		}
		go func() {
			sleepCtx(sc.ctx, delay)
			s.reconnect(ReconnectionError, false, connErr, nil)
		}()
		return nil
	}

	s.resetFailures()
	handle := &transportHandle{transport: t, scopeCtx: sc.ctx}
	s.transport.Store(handle)
	s.isRunning.Store(true)

	go newReceiveLoop(s, handle).run()

	s.lastReceivedUnixNano.Store(time.Now().UnixNano())
	s.watchdog.arm()
	s.publishReconnection(ReconnectionInfo{Type: rtype})
	return nil
}

// reconnect tears down the current transport (if any) and dials a new
// one under a fresh connection scope. Only one reconnect runs at a
// time, enforced by reconnectMu; fromHandle, when non-nil, must still
// be the current transport when the lock is acquired or the call is a
// no-op (the trigger that queued it has been superseded).
func (s *Session) reconnect(rtype ReconnectionType, failFast bool, cause error, fromHandle *transportHandle) {
	s.reconnectMu.Lock()
	defer s.reconnectMu.Unlock()

	if s.isDisposing.Load() {
		return
	}
	if fromHandle != nil && s.transport.Load() != fromHandle {
		return
	}

	s.isReconnecting.Store(true)
	defer s.isReconnecting.Store(false)

	if h := s.transport.Load(); h != nil {
		h.transport.Abort()
	}
	if old := s.currentScope(); old != nil {
		old.cancel()
	}

	s.isRunning.Store(false)
	s.session.Store(newScope(s.totalCtx))

	if err := s.startClient(rtype, failFast); err != nil {
		s.log.Error("reconnect attempt failed", logging.Err(err))
	}
}

// Stop gracefully closes the current connection with the given status
// and reason. Close failures are logged and swallowed; the session
// transitions to stopped regardless.
func (s *Session) Stop(ctx context.Context, status StatusCode, reason string) (bool, error) {
	return s.stopPublic(ctx, status, reason, false)
}

// StopOrFail is Stop, except a close failure is returned instead of
// being swallowed.
func (s *Session) StopOrFail(ctx context.Context, status StatusCode, reason string) (bool, error) {
	return s.stopPublic(ctx, status, reason, true)
}

func (s *Session) stopPublic(ctx context.Context, status StatusCode, reason string, failFast bool) (bool, error) {
	performed, closeOK, err := s.stopInternal(ctx, status, reason, failFast, false)
	if err != nil && errors.Is(err, ErrAlreadyDisposed) {
		return false, err
	}

	if performed {
		s.publishDisconnection(&DisconnectionInfo{
			Type:             DisconnectionByUser,
			CloseStatus:      status,
			CloseDescription: reason,
		})
	}

	if err != nil {
		if failFast {
			return closeOK, err
		}
		s.log.Warn("stop encountered a close error", logging.Err(err))
		return closeOK, nil
	}
	return closeOK, nil
}

// stopInternal performs the actual close handshake. performed reports
// whether a running connection was actually stopped (false if the
// session was already stopped — callers must not publish a second
// DisconnectionHappened in that case). byServer distinguishes a
// peer-initiated close (half-close via CloseOutput, preserving
// is_started while reconnection is enabled so a subsequent reconnect
// can proceed) from a caller-initiated one (full close, clears
// is_started).
func (s *Session) stopInternal(ctx context.Context, status StatusCode, reason string, failFast, byServer bool) (performed, closeOK bool, err error) {
	if s.isDisposing.Load() {
		return false, false, ErrAlreadyDisposed
	}

	s.watchdog.disarm()

	handle := s.transport.Load()
	if handle == nil {
		s.isStarted.Store(false)
		s.isRunning.Store(false)
		return false, false, nil
	}
	if !s.isRunning.Load() {
		return false, false, nil
	}

	s.isStopping.Store(true)
	defer s.isStopping.Store(false)

	var closeErr error
	if byServer {
		closeErr = handle.transport.CloseOutput(ctx, status, reason)
	} else {
		closeErr = handle.transport.Close(ctx, status, reason)
	}

	s.isRunning.Store(false)
	if !byServer || !s.isReconnectionEnabled.Load() {
		s.isStarted.Store(false)
	}

	if closeErr != nil {
		return true, false, &CloseFailedError{Cause: closeErr}
	}
	return true, true, nil
}

// Dispose permanently shuts the session down: it drains and closes the
// outbound and inbound queues, cancels every cancellation scope, aborts
// and closes the transport, disarms the watchdog, and — if the session
// was running — publishes a final DisconnectionHappened(Exit) before
// closing every event stream. Dispose is idempotent and safe to call
// more than once.
func (s *Session) Dispose() {
	if !s.isDisposing.CompareAndSwap(false, true) {
		return
	}

	wasRunning := s.isRunning.Load()

	s.textQueue.dispose(s.cfg.DrainTimeout)
	s.binaryQueue.dispose(s.cfg.DrainTimeout)
	s.receiveQueue.dispose(s.cfg.DrainTimeout)

	if sc := s.currentScope(); sc != nil {
		sc.cancel()
	}
	s.totalCancel()

	s.watchdog.disarm()

	if h := s.transport.Load(); h != nil {
		h.transport.Abort()
		_ = h.transport.Close(context.Background(), StatusNormalClosure, "disposed")
	}

	if wasRunning {
		s.publishDisconnection(&DisconnectionInfo{Type: DisconnectionExit})
	}

	s.isRunning.Store(false)
	s.isStarted.Store(false)

	s.events.close()
}
