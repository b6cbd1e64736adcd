package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/renatosilva/wsconn/pkg/wsconn"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if err := conn.Write(ctx, typ, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDial_SendAndReceiveRoundTrip(t *testing.T) {
	srv := newEchoServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	factory := Dial(DefaultConfig())
	tr, err := factory(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer tr.Close(context.Background(), wsconn.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := tr.Send(ctx, []byte("hello"), wsconn.MessageText, true); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 1024)
	frame, err := tr.Receive(ctx, buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if frame.Kind != wsconn.MessageText {
		t.Errorf("expected MessageText, got %v", frame.Kind)
	}
	if got := string(buf[:frame.N]); got != "hello" {
		t.Errorf("expected echoed payload %q, got %q", "hello", got)
	}
}

func TestDial_CloseReportedAsMessageClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.Close(websocket.StatusNormalClosure, "done")
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tr, err := Dial(DefaultConfig())(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer tr.Close(context.Background(), wsconn.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frame, err := tr.Receive(ctx, make([]byte, 1024))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if frame.Kind != wsconn.MessageClose {
		t.Errorf("expected MessageClose, got %v", frame.Kind)
	}
	if frame.CloseCode != wsconn.StatusNormalClosure {
		t.Errorf("expected StatusNormalClosure, got %v", frame.CloseCode)
	}
}

func TestDial_HandshakeTimeout(t *testing.T) {
	// A server that never replies: the dial context must expire.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	cfg := DefaultConfig()
	cfg.HandshakeTimeout = 50 * time.Millisecond

	if _, err := Dial(cfg)(context.Background(), url); err == nil {
		t.Error("expected the dial to time out against an unresponsive server")
	}
}
