package wsconn

import (
	"time"

	"github.com/renatosilva/wsconn/pkg/logging"
	"github.com/renatosilva/wsconn/pkg/retry"
)

// CircuitBreakerConfig bounds how aggressively a dead endpoint is
// redialed. It is an addition with no counterpart in the original
// reconnect-manager design: it only changes how often a connect is
// attempted while the endpoint is unreachable, never what eventually
// happens once it is reachable again. Zero MaxConsecutiveFailures
// disables it (the default).
type CircuitBreakerConfig struct {
	MaxConsecutiveFailures int
	ResetTimeout           time.Duration
	SuccessThreshold       int
}

// Config controls a Session's timeouts, queue sizing, and collaborators.
type Config struct {
	// Name identifies the session in logs and diagnostics. Defaults to
	// a generated UUID.
	Name string

	// ReconnectTimeout is the maximum time the watchdog allows to pass
	// without any inbound frame before forcing a reconnect. Zero
	// disables the watchdog.
	ReconnectTimeout time.Duration

	// ErrorReconnectTimeout is the delay before retrying after a
	// failed connect attempt. Zero disables automatic retry of a
	// failed connect.
	ErrorReconnectTimeout time.Duration

	// LostReconnectTimeout is the delay before reconnecting after the
	// receive loop exits unexpectedly or the peer closes the
	// connection. Zero reconnects immediately.
	LostReconnectTimeout time.Duration

	// IsReconnectionEnabled gates every automatic reconnect trigger
	// (watchdog, lost connection, server close). Stop/Dispose are
	// unaffected. Defaults to true.
	IsReconnectionEnabled bool

	// IsTextMessageConversionEnabled controls whether frames the
	// transport reports as MessageText are decoded to a Go string in
	// the published ResponseMessage. When false they are published as
	// the raw bytes instead. Defaults to true.
	IsTextMessageConversionEnabled bool

	// SendQueueSize bounds the outbound text and binary queues (each
	// sized independently).
	SendQueueSize int

	// ReceiveQueueSize bounds the inbound dispatch queue.
	ReceiveQueueSize int

	// DrainTimeout bounds how long Dispose waits for queued work to
	// finish before abandoning the drain.
	DrainTimeout time.Duration

	// DiagnosticsHistory is how many recent disconnection and
	// reconnection events Diagnostics retains.
	DiagnosticsHistory int

	// CircuitBreaker optionally guards repeated connect failures.
	CircuitBreaker CircuitBreakerConfig

	// Backoff, if set, replaces the fixed ErrorReconnectTimeout/
	// LostReconnectTimeout delays with an exponential-backoff schedule
	// keyed to the session's current consecutive-failure count. It is
	// not applied to a timeout that is zero: that path keeps its
	// zero-timeout behavior described above.
	Backoff *retry.Config

	// Logger receives structured session lifecycle logs. Defaults to
	// logging.DefaultLogger.
	Logger logging.Logger
}

// DefaultConfig returns the baseline configuration: reconnection
// enabled, a 60s watchdog and error-retry timeout, immediate
// reconnect-on-loss, and modestly sized queues.
func DefaultConfig() Config {
	return Config{
		ReconnectTimeout:               60 * time.Second,
		ErrorReconnectTimeout:          60 * time.Second,
		LostReconnectTimeout:           0,
		IsReconnectionEnabled:          true,
		IsTextMessageConversionEnabled: true,
		SendQueueSize:                  256,
		ReceiveQueueSize:               256,
		DrainTimeout:                   5 * time.Second,
		DiagnosticsHistory:             32,
	}
}

// Option configures a Session at construction time.
type Option func(*Config)

func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func WithReconnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReconnectTimeout = d }
}

func WithErrorReconnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.ErrorReconnectTimeout = d }
}

func WithLostReconnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.LostReconnectTimeout = d }
}

func WithReconnectionEnabled(enabled bool) Option {
	return func(c *Config) { c.IsReconnectionEnabled = enabled }
}

func WithTextMessageConversion(enabled bool) Option {
	return func(c *Config) { c.IsTextMessageConversionEnabled = enabled }
}

func WithQueueSizes(sendSize, receiveSize int) Option {
	return func(c *Config) {
		c.SendQueueSize = sendSize
		c.ReceiveQueueSize = receiveSize
	}
}

func WithDrainTimeout(d time.Duration) Option {
	return func(c *Config) { c.DrainTimeout = d }
}

func WithDiagnosticsHistory(n int) Option {
	return func(c *Config) { c.DiagnosticsHistory = n }
}

func WithCircuitBreaker(cfg CircuitBreakerConfig) Option {
	return func(c *Config) { c.CircuitBreaker = cfg }
}

func WithBackoff(cfg *retry.Config) Option {
	return func(c *Config) { c.Backoff = cfg }
}
