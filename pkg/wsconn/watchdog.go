package wsconn

import (
	"sync"
	"sync/atomic"
	"time"
)

// watchdog forces a reconnect when no inbound frame has arrived within
// Config.ReconnectTimeout of the last one (or of arming, if none has
// arrived yet). It is armed on every successful connect and disarmed on
// every stop, dispose, or reconnect attempt, so at most one watchdog
// goroutine runs per connection.
type watchdog struct {
	session *Session

	mu     sync.Mutex
	stopCh chan struct{}
	armed  atomic.Bool
}

func newWatchdog(s *Session) *watchdog {
	return &watchdog{session: s}
}

func (w *watchdog) arm() {
	s := w.session
	timeout := s.cfg.ReconnectTimeout
	if timeout <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed.CompareAndSwap(false, true) {
		return
	}
	stop := make(chan struct{})
	w.stopCh = stop
	go w.loop(timeout, stop)
}

func (w *watchdog) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed.CompareAndSwap(true, false) {
		return
	}
	close(w.stopCh)
}

func (w *watchdog) loop(timeout time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()

	s := w.session
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			last := time.Unix(0, s.lastReceivedUnixNano.Load())
			if time.Since(last) < timeout {
				continue
			}

			handle := s.transport.Load()
			if !s.isReconnectionEnabled.Load() || s.shouldIgnoreReconnection(handle) {
				continue
			}

			s.recordFailure()
			s.publishDisconnection(&DisconnectionInfo{Type: DisconnectionNoMessageReceived})
			s.triggerReconnect(handle, ReconnectionNoMessageReceived, 0, nil)
			return
		}
	}
}
