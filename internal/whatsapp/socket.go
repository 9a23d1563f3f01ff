package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the socket loop uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Dialer opens the event socket.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// WSDialer dials the lending API's WebSocket endpoint.
type WSDialer struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
}

// NewWSDialer derives the socket URL from the API base URL and path. The
// service token, when set, is sent as a bearer token.
func NewWSDialer(baseURL, path, token string) (*WSDialer, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")

	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return &WSDialer{URL: u.String(), Header: h, Dialer: websocket.DefaultDialer}, nil
}

// Dial implements Dialer.
func (d *WSDialer) Dial(ctx context.Context) (Conn, error) {
	conn, resp, err := d.Dialer.DialContext(ctx, d.URL, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Start runs the socket loop in the background. ctx bounds the loop and is
// reused by Restart.
func (s *Sync) Start(ctx context.Context) error {
	s.connMu.Lock()
	if s.running {
		s.connMu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.baseCtx = ctx
	s.connMu.Unlock()

	go func() {
		err := s.run(ctx)
		s.connMu.Lock()
		s.running = false
		s.connMu.Unlock()
		if err != nil && ctx.Err() == nil {
			s.log.WithFields(map[string]any{
				"component": "whatsapp",
				"event":     "socket_stopped",
				"error":     err.Error(),
			}).Error("whatsapp socket stopped")
		}
	}()
	return nil
}

// Restart starts a fresh socket loop after the previous one gave up. It is a
// no-op when the loop is still running.
func (s *Sync) Restart() error {
	s.connMu.Lock()
	ctx := s.baseCtx
	s.connMu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Start(ctx); err != nil && err != ErrAlreadyRunning {
		return err
	}
	return nil
}

// Running reports whether the socket loop is alive.
func (s *Sync) Running() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.running
}

// RequestQR asks the API to emit a fresh qr event.
func (s *Sync) RequestQR() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.WriteJSON(Event{Name: EventRequestQR})
}

// run dials and reads until ctx ends or the attempt ceiling is reached.
// Failed dials and dropped connections both count as attempts; a successful
// dial resets the count. On exhaustion the connection is dropped and only
// Restart brings it back.
func (s *Sync) run(ctx context.Context) error {
	attempts := 0
	for {
		conn, err := s.dialer.Dial(ctx)
		if err == nil {
			attempts = 0
			s.setConn(conn)
			s.log.WithFields(map[string]any{"component": "whatsapp", "event": "socket_connected"}).Info("whatsapp socket connected")
			err = s.readLoop(ctx, conn)
			s.clearConn(conn)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempts++
		s.log.WithFields(map[string]any{
			"component": "whatsapp",
			"event":     "socket_error",
			"attempt":   attempts,
			"error":     fmt.Sprint(err),
		}).Warn("whatsapp socket failed")
		if attempts >= s.opts.MaxReconnectAttempts {
			s.clearConn(nil)
			return ErrReconnectExhausted
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.opts.ReconnectDelay):
		}
	}
}

func (s *Sync) readLoop(ctx context.Context, conn Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	// Only transport errors end the loop; keepalives and other frames that
	// are not events are skipped.
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(frame, &ev); err != nil || ev.Name == "" {
			s.log.WithFields(map[string]any{"component": "whatsapp", "frame_bytes": len(frame)}).Debug("skipped undecodable socket frame")
			continue
		}
		if err := s.Apply(ev); err != nil {
			s.log.WithFields(map[string]any{"component": "whatsapp", "event_name": ev.Name}).Debug("ignored socket event")
		}
	}
}

func (s *Sync) setConn(c Conn) {
	s.connMu.Lock()
	s.conn = c
	s.connMu.Unlock()
}

// clearConn closes and nulls the current connection. When c is non-nil only
// that connection is cleared.
func (s *Sync) clearConn(c Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil || (c != nil && s.conn != c) {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
}
