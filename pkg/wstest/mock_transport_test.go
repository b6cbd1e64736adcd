package wstest

import (
	"context"
	"testing"
	"time"

	"github.com/renatosilva/wsconn/pkg/wsconn"
)

func TestMockTransport_SendRecordsFrame(t *testing.T) {
	mt := NewMockTransport()
	if err := mt.Send(context.Background(), []byte("hi"), wsconn.MessageText, true); err != nil {
		t.Fatalf("Send: %v", err)
	}
	AssertSent(t, mt, wsconn.MessageText, []byte("hi"))
}

func TestMockTransport_SendErrFailsCalls(t *testing.T) {
	mt := NewMockTransport()
	boom := errSentinel("boom")
	mt.SetSendErr(boom)

	if err := mt.Send(context.Background(), []byte("hi"), wsconn.MessageText, true); err != boom {
		t.Errorf("expected %v, got %v", boom, err)
	}
	if len(mt.SentFrames()) != 0 {
		t.Error("expected no frame recorded when Send fails")
	}
}

func TestMockTransport_PushDeliversToReceive(t *testing.T) {
	mt := NewMockTransport()
	mt.Push(wsconn.MessageBinary, []byte{1, 2, 3})

	buf := make([]byte, 16)
	frame, err := mt.Receive(context.Background(), buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if frame.Kind != wsconn.MessageBinary || frame.N != 3 {
		t.Errorf("unexpected frame: %+v", frame)
	}
	if string(buf[:frame.N]) != "\x01\x02\x03" {
		t.Errorf("unexpected payload: %v", buf[:frame.N])
	}
}

func TestMockTransport_PushCloseDeliversCloseFrame(t *testing.T) {
	mt := NewMockTransport()
	mt.PushClose(wsconn.StatusGoingAway, "bye")

	frame, err := mt.Receive(context.Background(), make([]byte, 16))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if frame.Kind != wsconn.MessageClose || frame.CloseCode != wsconn.StatusGoingAway || frame.CloseReason != "bye" {
		t.Errorf("unexpected close frame: %+v", frame)
	}
}

func TestMockTransport_ReceiveRespectsContextCancellation(t *testing.T) {
	mt := NewMockTransport()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := mt.Receive(ctx, make([]byte, 16)); err == nil {
		t.Error("expected Receive to return an error once the context is done")
	}
}

func TestMockTransport_CloseErrFailsWithoutChangingState(t *testing.T) {
	mt := NewMockTransport()
	boom := errSentinel("close refused")
	mt.SetCloseErr(boom)

	if err := mt.Close(context.Background(), wsconn.StatusNormalClosure, ""); err != boom {
		t.Errorf("expected %v, got %v", boom, err)
	}
	if mt.State() != wsconn.StateOpen {
		t.Errorf("expected state to remain Open after a failed Close, got %v", mt.State())
	}

	mt.SetCloseErr(nil)
	if err := mt.Close(context.Background(), wsconn.StatusNormalClosure, ""); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mt.State() != wsconn.StateClosed {
		t.Errorf("expected state Closed after Close succeeds, got %v", mt.State())
	}
}

func TestMockTransport_StateTransitions(t *testing.T) {
	mt := NewMockTransport()
	if mt.State() != wsconn.StateOpen {
		t.Fatalf("expected initial state Open, got %v", mt.State())
	}
	mt.Abort()
	if mt.State() != wsconn.StateAborted {
		t.Errorf("expected Aborted after Abort, got %v", mt.State())
	}
}

func TestChaosTransport_DisabledDelegatesDirectly(t *testing.T) {
	mt := NewMockTransport()
	ct := NewChaosTransport(mt, ChaosConfig{Enabled: false})

	if err := ct.Send(context.Background(), []byte("x"), wsconn.MessageText, true); err != nil {
		t.Fatalf("Send: %v", err)
	}
	AssertSent(t, mt, wsconn.MessageText, []byte("x"))
}

func TestChaosTransport_FullErrorRateAlwaysFails(t *testing.T) {
	mt := NewMockTransport()
	ct := NewChaosTransport(mt, ChaosConfig{Enabled: true, ErrorRate: 1})

	if err := ct.Send(context.Background(), []byte("x"), wsconn.MessageText, true); err != ErrChaosInjected {
		t.Errorf("expected ErrChaosInjected, got %v", err)
	}
	if len(mt.SentFrames()) != 0 {
		t.Error("expected the wrapped transport to never see a frame when ErrorRate is 1")
	}
}

func TestChaosTransport_ZeroErrorAndDropRatePassesThrough(t *testing.T) {
	mt := NewMockTransport()
	ct := NewChaosTransport(mt, ChaosConfig{Enabled: true})

	if err := ct.Send(context.Background(), []byte("x"), wsconn.MessageText, true); err != nil {
		t.Fatalf("Send: %v", err)
	}
	AssertSent(t, mt, wsconn.MessageText, []byte("x"))
}

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
