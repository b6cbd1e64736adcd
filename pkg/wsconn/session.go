// Package wsconn implements a resilient, auto-reconnecting WebSocket
// client session on top of a caller-supplied Transport. A Session never
// dials a socket or frames bytes itself: dialing is delegated to a
// TransportFactory (package transport supplies the default
// github.com/coder/websocket-backed one), and application payload
// serialization is left to callers (package codec) — the session moves
// text and binary frames only.
package wsconn

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/renatosilva/wsconn/pkg/breaker"
	"github.com/renatosilva/wsconn/pkg/eventbus"
	"github.com/renatosilva/wsconn/pkg/logging"
	"github.com/renatosilva/wsconn/pkg/retry"
)

// scope bundles a context and its cancel function. A Session holds one
// "total" scope for its entire lifetime (cancelled once, by Dispose)
// and one "connection" scope that is replaced on every reconnect.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newScope(parent context.Context) *scope {
	s := &scope{}
	s.ctx, s.cancel = context.WithCancel(parent)
	return s
}

// transportHandle wraps a live Transport together with the connection
// scope it was dialed under. Session compares *transportHandle pointer
// identity (not the Transport value) to decide whether a trigger firing
// from an old connection is stale, since arbitrary Transport
// implementations need not be comparable with ==.
type transportHandle struct {
	transport Transport
	scopeCtx  context.Context
}

// Session is a single resilient WebSocket connection: it owns exactly
// one logical connection to one URL at a time, reconnecting underneath
// callers according to its Config.
type Session struct {
	factory TransportFactory
	cfg     Config
	log     logging.Logger

	url atomic.Pointer[string]

	totalCtx    context.Context
	totalCancel context.CancelFunc

	session atomic.Pointer[scope]

	transport atomic.Pointer[transportHandle]

	isStarted              atomic.Bool
	isRunning              atomic.Bool
	isDisposing            atomic.Bool
	isReconnecting         atomic.Bool
	isStopping             atomic.Bool
	isReconnectionEnabled  atomic.Bool
	consecutiveFailures    atomic.Int32
	lastReceivedUnixNano   atomic.Int64

	reconnectMu sync.Mutex

	sendLock     *sendLock
	textQueue    *boundedQueue[outboundItem]
	binaryQueue  *boundedQueue[outboundItem]
	receiveQueue *boundedQueue[receiveItem]

	events      *eventStreams
	watchdog    *watchdog
	breaker     *breaker.CircuitBreaker
	diagnostics *diagnostics
}

// NewSession constructs a Session for rawURL, using factory to dial a
// Transport on Start and every reconnect. The session is idle until
// Start or StartOrFail is called.
func NewSession(rawURL string, factory TransportFactory, opts ...Option) (*Session, error) {
	if rawURL == "" || factory == nil {
		return nil, ErrInvalidInput
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.DefaultLogger
	}
	if cfg.Name == "" {
		cfg.Name = uuid.New().String()
	}

	totalCtx, totalCancel := context.WithCancel(context.Background())

	s := &Session{
		factory:     factory,
		cfg:         cfg,
		log:         cfg.Logger.With(logging.String("session", cfg.Name)),
		totalCtx:    totalCtx,
		totalCancel: totalCancel,
		sendLock:    newSendLock(),
		events:      newEventStreams(),
		diagnostics: newDiagnostics(cfg.DiagnosticsHistory),
	}
	s.url.Store(&rawURL)
	s.isReconnectionEnabled.Store(cfg.IsReconnectionEnabled)
	s.watchdog = newWatchdog(s)

	if cfg.CircuitBreaker.MaxConsecutiveFailures > 0 {
		s.breaker = breaker.New(&breaker.Config{
			MaxConsecutiveFailures: cfg.CircuitBreaker.MaxConsecutiveFailures,
			ResetTimeout:           cfg.CircuitBreaker.ResetTimeout,
			SuccessThreshold:       cfg.CircuitBreaker.SuccessThreshold,
		})
	}

	s.textQueue = newBoundedQueue("text-send", cfg.SendQueueSize, s.log, s.sendWorker)
	s.binaryQueue = newBoundedQueue("binary-send", cfg.SendQueueSize, s.log, s.sendWorker)
	s.receiveQueue = newBoundedQueue("receive", cfg.ReceiveQueueSize, s.log, s.dispatch)

	return s, nil
}

// Name returns the session's configured or generated name.
func (s *Session) Name() string { return s.cfg.Name }

// URL returns the URL the session currently targets.
func (s *Session) URL() string {
	p := s.url.Load()
	if p == nil {
		return ""
	}
	return *p
}

// SetURL reassigns the target URL. It takes effect on the next
// reconnect attempt; it never interrupts a connection already open.
func (s *Session) SetURL(rawURL string) {
	s.url.Store(&rawURL)
}

// IsStarted reports whether Start has been called and Stop/Dispose has
// not subsequently cleared it.
func (s *Session) IsStarted() bool { return s.isStarted.Load() }

// IsRunning reports whether a Transport is currently connected.
func (s *Session) IsRunning() bool { return s.isRunning.Load() }

// IsReconnecting reports whether a reconnect attempt is in flight.
func (s *Session) IsReconnecting() bool { return s.isReconnecting.Load() }

// SetReconnectionEnabled toggles automatic reconnection at runtime.
// Disabling it does not interrupt a connection already open.
func (s *Session) SetReconnectionEnabled(enabled bool) {
	s.isReconnectionEnabled.Store(enabled)
}

// SubscribeMessages registers handler to run, on its own goroutine, for
// every ResponseMessage published after this call returns.
func (s *Session) SubscribeMessages(handler func(ResponseMessage)) eventbus.Subscription {
	return s.events.messageReceived.Subscribe(handler)
}

// SubscribeReconnections registers handler for every ReconnectionInfo.
func (s *Session) SubscribeReconnections(handler func(ReconnectionInfo)) eventbus.Subscription {
	return s.events.reconnectionHappened.Subscribe(handler)
}

// SubscribeDisconnections registers handler to run synchronously,
// before the publishing call returns, for every DisconnectionInfo.
// Handlers may mutate the passed *DisconnectionInfo's cancel flags.
func (s *Session) SubscribeDisconnections(handler func(*DisconnectionInfo)) eventbus.Subscription {
	return s.events.disconnectionHappened.Subscribe(handler)
}

// StreamFakeMessage publishes msg on the MessageReceived stream without
// it having come from the Transport. Intended for tests exercising
// downstream consumers.
func (s *Session) StreamFakeMessage(msg ResponseMessage) {
	s.events.messageReceived.Publish(msg)
}

// SendText enqueues text to be sent as a text frame. It never blocks
// and never reports failure: if the session is disposed, not
// connected, or the queue is full, the message is silently dropped
// (and logged).
func (s *Session) SendText(text string) {
	if s.isDisposing.Load() {
		return
	}
	s.textQueue.add(outboundItem{payload: []byte(text), kind: MessageText})
}

// SendBytes enqueues data to be sent as a binary frame, with the same
// fire-and-forget semantics as SendText.
func (s *Session) SendBytes(data []byte) {
	if s.isDisposing.Load() {
		return
	}
	s.binaryQueue.add(outboundItem{payload: data, kind: MessageBinary})
}

// SendInstantText writes text directly to the Transport, bypassing the
// send queue, blocking until the write completes or ctx is done.
func (s *Session) SendInstantText(ctx context.Context, text string) error {
	if s.isDisposing.Load() {
		return ErrAlreadyDisposed
	}
	return s.sendInstant(ctx, []byte(text), MessageText)
}

// SendInstantBytes is SendInstantText for a binary frame.
func (s *Session) SendInstantBytes(ctx context.Context, data []byte) error {
	if s.isDisposing.Load() {
		return ErrAlreadyDisposed
	}
	return s.sendInstant(ctx, data, MessageBinary)
}

// Diagnostics returns a snapshot of the session's recent history.
func (s *Session) Diagnostics() Diagnostics {
	d := Diagnostics{
		IsStarted:           s.isStarted.Load(),
		IsRunning:           s.isRunning.Load(),
		IsReconnecting:      s.isReconnecting.Load(),
		ConsecutiveFailures: int(s.consecutiveFailures.Load()),
		RecentDisconnections: s.diagnostics.disconnections.Snapshot(),
		RecentReconnections:  s.diagnostics.reconnections.Snapshot(),
	}
	if s.breaker != nil {
		d.CircuitBreakerState = s.breaker.State().String()
	}
	return d
}

func (s *Session) currentScope() *scope {
	return s.session.Load()
}

// shouldIgnoreReconnection reports whether a reconnection trigger
// originating from handle is stale and must be dropped: the session is
// disposing, already mid-reconnect, intentionally stopping, or handle
// is no longer the current transport.
func (s *Session) shouldIgnoreReconnection(handle *transportHandle) bool {
	if s.isDisposing.Load() || s.isReconnecting.Load() || s.isStopping.Load() {
		return true
	}
	if handle == nil {
		return false
	}
	return s.transport.Load() != handle
}

// triggerReconnect schedules an asynchronous reconnect of the given
// type after delay, unless shouldIgnoreReconnection(handle) is true.
func (s *Session) triggerReconnect(handle *transportHandle, rtype ReconnectionType, delay time.Duration, cause error) {
	if s.shouldIgnoreReconnection(handle) {
		return
	}
	go func() {
		if delay > 0 {
			sleepCtx(s.totalCtx, delay)
		}
		s.reconnect(rtype, false, cause, handle)
	}()
}

// reconnectDelay applies the configured backoff policy (if any) to
// base, using the session's current consecutive-failure count as the
// attempt index. A non-positive base means "reconnect immediately".
func (s *Session) reconnectDelay(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if s.cfg.Backoff == nil {
		return base
	}
	attempt := int(s.consecutiveFailures.Load()) - 1
	if attempt < 0 {
		attempt = 0
	}
	return retry.Backoff(attempt, s.cfg.Backoff)
}

func (s *Session) recordFailure() int32 {
	return s.consecutiveFailures.Add(1)
}

func (s *Session) resetFailures() {
	s.consecutiveFailures.Store(0)
}

func (s *Session) publishDisconnection(info *DisconnectionInfo) {
	s.events.disconnectionHappened.Notify(info)
	s.diagnostics.recordDisconnection(*info)
}

func (s *Session) publishReconnection(info ReconnectionInfo) {
	s.events.reconnectionHappened.Publish(info)
	s.diagnostics.recordReconnection(info)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
