package wsconn

import "github.com/renatosilva/wsconn/pkg/eventbus"

// eventStreams bundles the session's three public event feeds.
// MessageReceived and ReconnectionHappened fan out asynchronously;
// DisconnectionHappened delivers synchronously (see eventbus.Notifier)
// so that a subscriber's cancel-flag mutations are visible to the
// controller before it decides what to do next.
type eventStreams struct {
	messageReceived      *eventbus.Topic[ResponseMessage]
	reconnectionHappened *eventbus.Topic[ReconnectionInfo]
	disconnectionHappened *eventbus.Notifier[*DisconnectionInfo]
}

func newEventStreams() *eventStreams {
	return &eventStreams{
		messageReceived:       eventbus.NewTopic[ResponseMessage](),
		reconnectionHappened:  eventbus.NewTopic[ReconnectionInfo](),
		disconnectionHappened: eventbus.NewNotifier[*DisconnectionInfo](),
	}
}

func (e *eventStreams) close() {
	e.messageReceived.Close()
	e.reconnectionHappened.Close()
	e.disconnectionHappened.Close()
}
