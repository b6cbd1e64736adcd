package wsconn

import "context"

// dispatch is the inbound dispatcher: the single handler driving
// receiveQueue. It turns a raw receiveItem into either a published
// ResponseMessage or a close-frame-driven lifecycle transition,
// entirely off the receive loop's goroutine so a slow subscriber never
// stalls the next Transport read.
func (s *Session) dispatch(item receiveItem) {
	if item.kind == MessageClose {
		s.handleCloseFrame(item)
		return
	}

	if !s.isRunning.Load() {
		return
	}
	if len(item.payload) == 0 {
		return
	}

	var msg ResponseMessage
	if item.kind == MessageText && s.cfg.IsTextMessageConversionEnabled {
		msg = TextMessage(string(item.payload))
	} else {
		msg = BinaryMessage(item.payload)
	}
	s.events.messageReceived.Publish(msg)
}

func (s *Session) handleCloseFrame(item receiveItem) {
	if !s.isStarted.Load() || s.isStopping.Load() {
		return
	}

	handle := s.transport.Load()
	info := &DisconnectionInfo{
		Type:             DisconnectionByServer,
		CloseStatus:      item.closeCode,
		CloseDescription: item.closeReason,
	}
	s.publishDisconnection(info)

	if info.CancelClosing {
		if s.isReconnectionEnabled.Load() && handle != nil {
			handle.transport.Abort()
		}
		return
	}

	_, _, _ = s.stopInternal(context.Background(), StatusNormalClosure, "", false, true)

	if s.isReconnectionEnabled.Load() {
		delay := s.reconnectDelay(s.cfg.LostReconnectTimeout)
		s.triggerReconnect(handle, ReconnectionLost, delay, nil)
	}
}
