package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamPath     = "/api/tracking/live"
	wsWriteTimeout = 5 * time.Second
)

// wsTransport is the streaming variant: a persistent WebSocket over which
// frames are sent fire-and-forget and results arrive on a separate inbound
// loop.
type wsTransport struct {
	url              string
	handshakeTimeout time.Duration
	sink             resultSink

	mu     sync.Mutex
	conn   *websocket.Conn
	dead   bool // read loop exited with an error
	closed bool // explicit Close; suppresses abnormal-close reporting
	wg     sync.WaitGroup
}

// newWSTransport builds the streaming transport for the given service base
// URL (http or https scheme; converted to ws/wss).
func newWSTransport(baseURL string, handshakeTimeout time.Duration, sink resultSink) *wsTransport {
	return &wsTransport{
		url:              streamURL(baseURL),
		handshakeTimeout: handshakeTimeout,
		sink:             sink,
	}
}

// streamURL converts a service base URL to the live-tracking WebSocket URL.
func streamURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + streamPath
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + streamPath
	return u.String()
}

func (t *wsTransport) Kind() TransportKind { return TransportStreaming }

// Open dials the service. The handshake runs under the caller's context;
// the tuned connect timeout is applied by the caller.
func (t *wsTransport) Open(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: t.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return &TransportError{Kind: classifyNetErr(err), Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.dead = false
	t.closed = false
	t.mu.Unlock()

	t.wg.Add(1)
	go t.readLoop(conn)
	return nil
}

// Send writes one frame. Fire-and-forget: the matching result arrives via
// the inbound loop. Only the producer goroutine calls Send, so writes are
// naturally serialized.
func (t *wsTransport) Send(ctx context.Context, frame *FrameEnvelope) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return &TransportError{
			Kind: ErrNetworkUnavailable,
			Err:  errors.New("stream not open"),
		}
	}

	msg := imageMessage{
		Type:         "image",
		Data:         string(frame.Payload),
		TrackingMode: frame.TrackingMode,
		RobotType:    frame.RobotType,
		Timestamp:    wireTimestamp(frame.SentAt),
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return &TransportError{Kind: classifyNetErr(err), Err: err}
	}
	return nil
}

// Live reports whether the connection is open and the read loop healthy.
func (t *wsTransport) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil && !t.dead
}

// Close tears down the connection and waits for the read loop to finish, so
// no sink callback can fire after Close returns.
func (t *wsTransport) Close(normal bool) {
	t.mu.Lock()
	conn := t.conn
	t.closed = true
	t.mu.Unlock()

	if conn != nil {
		if normal {
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			conn.WriteControl(websocket.CloseMessage, msg, deadline)
		}
		conn.Close()
	}
	t.wg.Wait()
}

func (t *wsTransport) readLoop(conn *websocket.Conn) {
	defer t.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			normal := t.closed ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			t.conn = nil
			t.dead = true
			t.mu.Unlock()
			t.sink.handleClosed(normal, err)
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.sink.handleParseError(fmt.Errorf("decode stream message: %w", err))
			continue
		}

		switch msg.Type {
		case "pong":
			// Liveness only.
		case "config", "config_update":
			// Server-side robot config broadcast; informational.
		case "tracking_result":
			var payload ResultPayload
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				t.sink.handleParseError(fmt.Errorf("decode tracking result: %w", err))
				continue
			}
			t.sink.handleStreamResult(payload, time.Now())
		case "error":
			t.sink.handleStreamError(msg.Message)
		default:
			// Ignore unknown message types.
		}
	}
}
