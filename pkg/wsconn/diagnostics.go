package wsconn

import "github.com/renatosilva/wsconn/pkg/ringbuffer"

// diagnostics keeps a bounded in-memory history of recent lifecycle
// events, adapted from golivekit's pkg/pool ring buffer. It exists so a
// caller (or a health endpoint built on top of this package) can answer
// "what has this session been doing lately" without itself subscribing
// to the event streams from the moment the session was created.
type diagnostics struct {
	disconnections *ringbuffer.RingBuffer[DisconnectionInfo]
	reconnections  *ringbuffer.RingBuffer[ReconnectionInfo]
}

func newDiagnostics(capacity int) *diagnostics {
	return &diagnostics{
		disconnections: ringbuffer.New[DisconnectionInfo](capacity),
		reconnections:  ringbuffer.New[ReconnectionInfo](capacity),
	}
}

func (d *diagnostics) recordDisconnection(info DisconnectionInfo) {
	d.disconnections.Push(info)
}

func (d *diagnostics) recordReconnection(info ReconnectionInfo) {
	d.reconnections.Push(info)
}

// Diagnostics is a point-in-time snapshot of a Session's health.
type Diagnostics struct {
	IsStarted             bool
	IsRunning             bool
	IsReconnecting        bool
	ConsecutiveFailures   int
	CircuitBreakerState   string
	RecentDisconnections  []DisconnectionInfo
	RecentReconnections   []ReconnectionInfo
}
