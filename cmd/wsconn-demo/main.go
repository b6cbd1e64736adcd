// Command wsconn-demo connects to a WebSocket endpoint and prints every
// message received, reconnecting automatically on failure. It exists to
// exercise package wsconn end to end against a real server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/renatosilva/wsconn/pkg/logging"
	"github.com/renatosilva/wsconn/pkg/shutdown"
	"github.com/renatosilva/wsconn/pkg/transport"
	"github.com/renatosilva/wsconn/pkg/wsconn"
)

func main() {
	var (
		url              = flag.String("url", "ws://localhost:8080/ws", "WebSocket URL to connect to")
		name             = flag.String("name", "wsconn-demo", "session name used in logs")
		reconnectTimeout = flag.Duration("watchdog", 30*time.Second, "max silence before forcing a reconnect")
		handshake        = flag.Duration("handshake-timeout", 15*time.Second, "dial handshake timeout")
	)
	flag.Parse()

	logging.SetDefault(logging.NewSlogLogger(logging.WithOutput(os.Stderr)))
	log := logging.DefaultLogger.With(logging.String("component", "wsconn-demo"))

	dialCfg := transport.DefaultConfig()
	dialCfg.HandshakeTimeout = *handshake

	session, err := wsconn.NewSession(*url, transport.Dial(dialCfg),
		wsconn.WithName(*name),
		wsconn.WithReconnectTimeout(*reconnectTimeout),
		wsconn.WithErrorReconnectTimeout(5*time.Second),
		wsconn.WithLostReconnectTimeout(time.Second),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsconn-demo: %v\n", err)
		os.Exit(1)
	}

	session.SubscribeMessages(func(msg wsconn.ResponseMessage) {
		switch msg.Kind {
		case wsconn.ResponseText:
			fmt.Printf("< %s\n", msg.Text)
		case wsconn.ResponseBinary:
			fmt.Printf("< [%d binary bytes]\n", len(msg.Binary))
		}
	})
	session.SubscribeReconnections(func(info wsconn.ReconnectionInfo) {
		log.Info("reconnected", logging.String("type", info.Type.String()))
	})
	session.SubscribeDisconnections(func(info *wsconn.DisconnectionInfo) {
		log.Warn("disconnected",
			logging.String("type", info.Type.String()),
			logging.Err(info.Err),
		)
	})

	if err := session.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "wsconn-demo: start failed: %v\n", err)
		os.Exit(1)
	}
	log.Info("connecting", logging.String("url", *url))

	shutdown.RegisterFunc("wsconn-session", shutdown.PriorityWebSocket, func(ctx context.Context) error {
		session.Dispose()
		return nil
	})

	if err := shutdown.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "wsconn-demo: shutdown error: %v\n", err)
		os.Exit(1)
	}
}
