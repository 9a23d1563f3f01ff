package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motodash/internal/logging"
	"motodash/internal/model"
)

func newTestSync(t *testing.T, d Dialer, attempts int) *Sync {
	t.Helper()
	s, err := NewSync(d, Options{
		MaxReconnectAttempts: attempts,
		ReconnectDelay:       time.Millisecond,
		Logger:               logging.New(&bytes.Buffer{}, time.UTC),
		Registerer:           prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return s
}

func raw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func TestSync_ApplyLastEventWins(t *testing.T) {
	s := newTestSync(t, nil, 1)
	assert.False(t, s.Initialized())
	assert.Equal(t, StateUnknown, s.Snapshot().State)

	require.NoError(t, s.Apply(Event{Name: EventQR, Data: raw(map[string]string{"qr": "2@first"})}))
	st := s.Snapshot()
	assert.Equal(t, StateQRPending, st.State)
	assert.Equal(t, "2@first", st.QR)
	assert.True(t, s.Initialized())

	require.NoError(t, s.Apply(Event{Name: EventQR, Data: raw("2@second")}))
	assert.Equal(t, "2@second", s.Snapshot().QR)

	require.NoError(t, s.Apply(Event{Name: EventConnected, Data: raw(map[string]string{"phone": "573001112233"})}))
	st = s.Snapshot()
	assert.Equal(t, StateConnected, st.State)
	assert.Empty(t, st.QR)
	assert.Equal(t, "573001112233", st.Phone)

	require.NoError(t, s.Apply(Event{Name: EventDisconnected}))
	st = s.Snapshot()
	assert.Equal(t, StateDisconnected, st.State)
	assert.Empty(t, st.QR)

	assert.Error(t, s.Apply(Event{Name: "presence"}))
	assert.Equal(t, StateDisconnected, s.Snapshot().State)

	assert.Equal(t, float64(2), testutil.ToFloat64(s.events.WithLabelValues(EventQR)))
}

func TestSync_Reconcile(t *testing.T) {
	s := newTestSync(t, nil, 1)

	s.Reconcile(model.WhatsAppStatus{QR: "2@rest"})
	assert.Equal(t, StateQRPending, s.Snapshot().State)

	require.NoError(t, s.Apply(Event{Name: EventConnected}))
	assert.Equal(t, StateConnected, s.Snapshot().State)

	s.Reconcile(model.WhatsAppStatus{})
	assert.Equal(t, StateDisconnected, s.Snapshot().State)

	s.Reconcile(model.WhatsAppStatus{Connected: true, QR: "stale", Phone: "57300"})
	st := s.Snapshot()
	assert.Equal(t, StateConnected, st.State)
	assert.Empty(t, st.QR)
}

func TestFromREST(t *testing.T) {
	tests := []struct {
		name string
		in   model.WhatsAppStatus
		want Status
	}{
		{"connected", model.WhatsAppStatus{Connected: true, QR: "stale", Phone: "57300"}, Status{State: StateConnected, Phone: "57300"}},
		{"qr pending", model.WhatsAppStatus{QR: "2@abc"}, Status{State: StateQRPending, QR: "2@abc"}},
		{"disconnected", model.WhatsAppStatus{}, Status{State: StateDisconnected}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromREST(tt.in))
		})
	}
}

func TestSync_LogsAreBounded(t *testing.T) {
	s := newTestSync(t, nil, 1)

	for i := 0; i < maxLogEntries+5; i++ {
		require.NoError(t, s.Apply(Event{Name: EventLog, Data: raw(map[string]string{"message": fmt.Sprintf("line %d", i), "level": "warn"})}))
	}
	require.NoError(t, s.Apply(Event{Name: EventLog, Data: raw("plain text")}))

	logs := s.Logs()
	assert.Len(t, logs, maxLogEntries)
	assert.Equal(t, "line 6", logs[0].Message)
	assert.Equal(t, "warn", logs[0].Level)
	assert.Equal(t, "plain text", logs[len(logs)-1].Message)
	assert.Equal(t, "info", logs[len(logs)-1].Level)
}

type fakeConn struct {
	mu      sync.Mutex
	frames  chan []byte
	written []Event
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 8), closed: make(chan struct{})}
}

func frame(ev Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case p, ok := <-c.frames:
		if !ok {
			return 0, nil, errors.New("eof")
		}
		return websocket.TextMessage, p, nil
	case <-c.closed:
		return 0, nil, errors.New("closed")
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v.(Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []Conn
	errs  []error
	calls int
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	if i < len(d.conns) {
		return d.conns[i], nil
	}
	return nil, errors.New("no more connections")
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestSync_ReconnectCeiling(t *testing.T) {
	d := &fakeDialer{errs: []error{errors.New("refused"), errors.New("refused"), errors.New("refused")}}
	s := newTestSync(t, d, 3)

	err := s.run(context.Background())

	assert.ErrorIs(t, err, ErrReconnectExhausted)
	assert.Equal(t, 3, d.Calls())
	assert.False(t, s.Snapshot().Socket)
	assert.ErrorIs(t, s.RequestQR(), ErrNotConnected)
}

func TestSync_SuccessfulDialResetsAttempts(t *testing.T) {
	conn := newFakeConn()
	conn.frames <- frame(Event{Name: EventConnected})
	close(conn.frames)

	// refused, then a connection that drops: the successful dial resets the
	// count, so the drop and one more refused dial reach the ceiling of 2.
	d := &fakeDialer{
		errs:  []error{errors.New("refused"), nil, errors.New("refused"), errors.New("refused")},
		conns: []Conn{nil, conn},
	}
	s := newTestSync(t, d, 2)

	err := s.run(context.Background())

	assert.ErrorIs(t, err, ErrReconnectExhausted)
	assert.Equal(t, 3, d.Calls())
	assert.Equal(t, StateConnected, s.Snapshot().State)
}

func TestSync_StartRequestQRAndRestart(t *testing.T) {
	conn := newFakeConn()
	d := &fakeDialer{conns: []Conn{conn}}
	s := newTestSync(t, d, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), ErrAlreadyRunning)

	conn.frames <- frame(Event{Name: EventQR, Data: raw("2@live")})
	assert.Eventually(t, func() bool { return s.Snapshot().QR == "2@live" }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Snapshot().Socket)

	require.NoError(t, s.RequestQR())
	conn.mu.Lock()
	assert.Equal(t, []Event{{Name: EventRequestQR}}, conn.written)
	conn.mu.Unlock()

	// drop the connection: the next dial fails and the ceiling of 1 is hit
	_ = conn.Close()
	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Snapshot().Socket)

	next := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, next)
	d.mu.Unlock()

	require.NoError(t, s.Restart())
	assert.Eventually(t, func() bool { return s.Snapshot().Socket }, time.Second, 5*time.Millisecond)
}

func TestSync_SkipsUndecodableFrames(t *testing.T) {
	conn := newFakeConn()
	conn.frames <- []byte("ping")
	conn.frames <- []byte(`{"unexpected":true}`)
	conn.frames <- frame(Event{Name: EventConnected, Data: raw(map[string]string{"phone": "57300"})})
	d := &fakeDialer{conns: []Conn{conn}}
	s := newTestSync(t, d, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	assert.Eventually(t, func() bool { return s.Snapshot().Phone == "57300" }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Running())
	assert.True(t, s.Snapshot().Socket)
	assert.Equal(t, 1, d.Calls())
}

func TestWSDialer_AgainstServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotAuth := make(chan string, 1)
	gotRequest := make(chan Event, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.WriteMessage(websocket.TextMessage, []byte("keepalive"))
		_ = c.WriteJSON(Event{Name: EventQR, Data: raw(map[string]string{"qr": "2@ws"})})
		var ev Event
		if err := c.ReadJSON(&ev); err == nil {
			gotRequest <- ev
		}
		_ = c.WriteJSON(Event{Name: EventConnected})
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	d, err := NewWSDialer(srv.URL+"/", "/ws", "svc-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.URL, "ws://"))
	assert.True(t, strings.HasSuffix(d.URL, "/ws"))

	s := newTestSync(t, d, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	assert.Equal(t, "Bearer svc-token", <-gotAuth)
	assert.Eventually(t, func() bool { return s.Snapshot().QR == "2@ws" }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.RequestQR())
	select {
	case ev := <-gotRequest:
		assert.Equal(t, EventRequestQR, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("request_qr was not received")
	}
	assert.Eventually(t, func() bool { return s.Snapshot().State == StateConnected }, time.Second, 5*time.Millisecond)
}

func TestNewWSDialer_Scheme(t *testing.T) {
	d, err := NewWSDialer("https://api.example.com/base", "ws", "")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/base/ws", d.URL)
	assert.Empty(t, d.Header.Get("Authorization"))
}
