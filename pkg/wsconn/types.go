package wsconn

// ResponseKind tags the variant carried by a ResponseMessage.
type ResponseKind int

const (
	ResponseText ResponseKind = iota
	ResponseBinary
	ResponseClose
)

// ResponseMessage is the value published on the MessageReceived stream.
// It is a tagged union: inspect Kind before reading the matching field.
type ResponseMessage struct {
	Kind   ResponseKind
	Text   string
	Binary []byte
	Code   StatusCode
	Reason string
}

// TextMessage builds a ResponseMessage carrying decoded text.
func TextMessage(s string) ResponseMessage { return ResponseMessage{Kind: ResponseText, Text: s} }

// BinaryMessage builds a ResponseMessage carrying raw bytes.
func BinaryMessage(b []byte) ResponseMessage { return ResponseMessage{Kind: ResponseBinary, Binary: b} }

// CloseMessage builds a ResponseMessage representing a close frame, for
// use with StreamFakeMessage in tests that want to simulate one without
// driving the session's actual lifecycle.
func CloseMessage(code StatusCode, reason string) ResponseMessage {
	return ResponseMessage{Kind: ResponseClose, Code: code, Reason: reason}
}

// DisconnectionType classifies why a DisconnectionHappened event fired.
type DisconnectionType int

const (
	// DisconnectionExit means the session was disposed.
	DisconnectionExit DisconnectionType = iota
	// DisconnectionNoMessageReceived means the watchdog timed out.
	DisconnectionNoMessageReceived
	// DisconnectionError means a connect attempt failed.
	DisconnectionError
	// DisconnectionLost means an established connection dropped
	// without an orderly close (receive loop error, abrupt EOF).
	DisconnectionLost
	// DisconnectionByServer means the peer sent a close frame.
	DisconnectionByServer
	// DisconnectionByUser means Stop/StopOrFail was called.
	DisconnectionByUser
)

func (t DisconnectionType) String() string {
	switch t {
	case DisconnectionExit:
		return "exit"
	case DisconnectionNoMessageReceived:
		return "no_message_received"
	case DisconnectionError:
		return "error"
	case DisconnectionLost:
		return "lost"
	case DisconnectionByServer:
		return "by_server"
	case DisconnectionByUser:
		return "by_user"
	default:
		return "unknown"
	}
}

// DisconnectionInfo is published, synchronously, on every disconnection.
// Subscriber handlers run before the publishing call returns, so a
// handler that sets CancelReconnection or CancelClosing changes the
// controller's next action.
type DisconnectionInfo struct {
	Type             DisconnectionType
	CloseStatus      StatusCode
	CloseDescription string
	Err              error

	// CancelReconnection, when set by a DisconnectionError subscriber,
	// suppresses the automatic retry that would otherwise follow a
	// failed connect attempt.
	CancelReconnection bool

	// CancelClosing, when set by a DisconnectionByServer subscriber,
	// suppresses the session's own close handshake in response to a
	// peer-initiated close, leaving the subscriber in control.
	CancelClosing bool
}

// ReconnectionType classifies why a ReconnectionHappened event fired.
type ReconnectionType int

const (
	ReconnectionInitial ReconnectionType = iota
	ReconnectionLost
	ReconnectionNoMessageReceived
	ReconnectionError
	ReconnectionByUser
)

func (t ReconnectionType) String() string {
	switch t {
	case ReconnectionInitial:
		return "initial"
	case ReconnectionLost:
		return "lost"
	case ReconnectionNoMessageReceived:
		return "no_message_received"
	case ReconnectionError:
		return "error"
	case ReconnectionByUser:
		return "by_user"
	default:
		return "unknown"
	}
}

// ReconnectionInfo is published whenever a Transport is (re)established.
type ReconnectionInfo struct {
	Type ReconnectionType
}

// receiveItem is the unit of work queued from the receive loop to the
// inbound dispatcher.
type receiveItem struct {
	kind         MessageKind
	payload      []byte
	endOfMessage bool
	closeCode    StatusCode
	closeReason  string
}

// outboundItem is the unit of work queued to a send worker.
type outboundItem struct {
	payload []byte
	kind    MessageKind
}
