package wstest

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/renatosilva/wsconn/pkg/wsconn"
)

// ChaosConfig configures fault injection for ChaosTransport.
type ChaosConfig struct {
	// Latency adds artificial delay to Send and Receive.
	Latency time.Duration
	// LatencyJitter adds random jitter to Latency (0-1).
	LatencyJitter float64
	// DropRate is the probability Send silently succeeds without
	// recording the frame, simulating a lost outbound message.
	DropRate float64
	// ErrorRate is the probability Send or Receive returns
	// ErrChaosInjected instead of delegating to the wrapped transport.
	ErrorRate float64
	// Enabled controls whether chaos is active at all.
	Enabled bool
	// Seed seeds the random source. Zero uses a fixed seed so test runs
	// are reproducible by default.
	Seed int64
}

// DefaultChaosConfig returns a mild config suitable for exercising
// reconnect logic without drowning out real assertions.
func DefaultChaosConfig() ChaosConfig {
	return ChaosConfig{
		Latency:       10 * time.Millisecond,
		LatencyJitter: 0.3,
		DropRate:      0.05,
		ErrorRate:     0.05,
		Enabled:       true,
	}
}

// ErrChaosInjected is returned by ChaosTransport when it decides to
// fail an operation instead of delegating to the wrapped transport.
var ErrChaosInjected = errors.New("wstest: chaos injected error")

// ChaosTransport wraps a wsconn.Transport with deterministic-by-seed
// fault injection, for tests that need to exercise Session's
// reconnect and backoff paths against a flaky connection instead of a
// perfectly scripted one.
type ChaosTransport struct {
	wrapped wsconn.Transport

	mu     sync.Mutex
	config ChaosConfig
	rng    *rand.Rand
}

// NewChaosTransport wraps wrapped with chaos behavior per config.
func NewChaosTransport(wrapped wsconn.Transport, config ChaosConfig) *ChaosTransport {
	return &ChaosTransport{
		wrapped: wrapped,
		config:  config,
		rng:     rand.New(rand.NewSource(config.Seed)),
	}
}

// SetConfig replaces the chaos configuration, e.g. to disable chaos
// mid-test once a scenario has been induced.
func (c *ChaosTransport) SetConfig(config ChaosConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = config
}

func (c *ChaosTransport) roll() (cfg ChaosConfig, dropRoll, errorRoll float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config, c.rng.Float64(), c.rng.Float64()
}

func (c *ChaosTransport) sleep(ctx context.Context, cfg ChaosConfig) {
	if cfg.Latency <= 0 {
		return
	}
	c.mu.Lock()
	jitter := c.rng.Float64() * cfg.LatencyJitter
	c.mu.Unlock()

	delay := float64(cfg.Latency) * (1 + jitter - cfg.LatencyJitter/2)
	select {
	case <-time.After(time.Duration(delay)):
	case <-ctx.Done():
	}
}

func (c *ChaosTransport) Send(ctx context.Context, payload []byte, kind wsconn.MessageKind, endOfMessage bool) error {
	cfg, dropRoll, errRoll := c.roll()
	if !cfg.Enabled {
		return c.wrapped.Send(ctx, payload, kind, endOfMessage)
	}

	c.sleep(ctx, cfg)
	if dropRoll < cfg.DropRate {
		return nil
	}
	if errRoll < cfg.ErrorRate {
		return ErrChaosInjected
	}
	return c.wrapped.Send(ctx, payload, kind, endOfMessage)
}

func (c *ChaosTransport) Receive(ctx context.Context, buf []byte) (wsconn.ReceivedFrame, error) {
	cfg, _, errRoll := c.roll()
	if !cfg.Enabled {
		return c.wrapped.Receive(ctx, buf)
	}

	c.sleep(ctx, cfg)
	if errRoll < cfg.ErrorRate {
		return wsconn.ReceivedFrame{}, ErrChaosInjected
	}
	return c.wrapped.Receive(ctx, buf)
}

func (c *ChaosTransport) Close(ctx context.Context, status wsconn.StatusCode, reason string) error {
	return c.wrapped.Close(ctx, status, reason)
}

func (c *ChaosTransport) CloseOutput(ctx context.Context, status wsconn.StatusCode, reason string) error {
	return c.wrapped.CloseOutput(ctx, status, reason)
}

func (c *ChaosTransport) Abort() {
	c.wrapped.Abort()
}

func (c *ChaosTransport) State() wsconn.ConnState {
	return c.wrapped.State()
}
