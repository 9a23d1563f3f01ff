// Package whatsapp keeps the WhatsApp connection state of the lending API in
// sync with the dashboard.
//
// The state starts from a REST status fetch and is then driven by socket
// push events (qr, whatsapp_connected, whatsapp_disconnected, whatsapp_log).
// The last applied update wins. QR codes live only in memory.
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"motodash/internal/model"
)

// Socket event names.
const (
	EventQR           = "qr"
	EventConnected    = "whatsapp_connected"
	EventDisconnected = "whatsapp_disconnected"
	EventLog          = "whatsapp_log"
	EventRequestQR    = "request_qr"
)

// State is the connection state shown in the dashboard.
type State string

const (
	StateUnknown      State = "unknown"
	StateDisconnected State = "disconnected"
	StateQRPending    State = "qr_pending"
	StateConnected    State = "connected"
)

const maxLogEntries = 100

var (
	ErrNotConnected       = errors.New("whatsapp socket is not connected")
	ErrReconnectExhausted = errors.New("whatsapp socket reconnect attempts exhausted")
	ErrAlreadyRunning     = errors.New("whatsapp socket is already running")
	errUnknownEvent       = errors.New("unknown event")
)

// Event is one socket frame.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Status is a snapshot of the synced state.
type Status struct {
	State     State     `json:"state"`
	QR        string    `json:"qr,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Socket    bool      `json:"socket_connected"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogEntry is one whatsapp_log line.
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Options tune the socket loop.
type Options struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	Logger               *logrus.Logger
	Registerer           prometheus.Registerer
}

// Sync owns the WhatsApp state and the singleton socket feeding it.
type Sync struct {
	dialer Dialer
	opts   Options
	log    *logrus.Logger
	now    func() time.Time
	events *prometheus.CounterVec

	mu          sync.RWMutex
	status      Status
	logs        []LogEntry
	initialized bool

	connMu  sync.Mutex
	conn    Conn
	running bool
	baseCtx context.Context
}

// NewSync creates a Sync. The socket is not opened until Start.
func NewSync(d Dialer, opts Options) (*Sync, error) {
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = 5
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	s := &Sync{
		dialer: d,
		opts:   opts,
		log:    opts.Logger,
		now:    time.Now,
		status: Status{State: StateUnknown},
		logs:   make([]LogEntry, 0, maxLogEntries),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whatsapp_events_total",
				Help: "WhatsApp socket events applied, by event name.",
			},
			[]string{"event"},
		),
	}
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(s.events); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Snapshot returns the current status.
func (s *Sync) Snapshot() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	s.connMu.Lock()
	st.Socket = s.conn != nil
	s.connMu.Unlock()
	return st
}

// Initialized reports whether any REST status or socket event was applied.
func (s *Sync) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Logs returns the retained whatsapp_log entries, oldest first.
func (s *Sync) Logs() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// FromREST maps the lending API's status payload onto a Status. Connected
// wins over a lingering QR code.
func FromREST(st model.WhatsAppStatus) Status {
	switch {
	case st.Connected:
		return Status{State: StateConnected, Phone: st.Phone}
	case st.QR != "":
		return Status{State: StateQRPending, QR: st.QR}
	default:
		return Status{State: StateDisconnected}
	}
}

// Reconcile applies a REST-fetched status.
func (s *Sync) Reconcile(st model.WhatsAppStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = FromREST(st)
	s.status.UpdatedAt = s.now()
	s.initialized = true
}

type qrData struct {
	QR string `json:"qr"`
}

type connectedData struct {
	Phone string `json:"phone"`
}

type logData struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Apply folds one socket event into the state.
func (s *Sync) Apply(ev Event) error {
	now := s.now()
	switch ev.Name {
	case EventQR:
		qr := decodeString(ev.Data, func(d qrData) string { return d.QR })
		s.set(Status{State: StateQRPending, QR: qr, UpdatedAt: now})
	case EventConnected:
		phone := decodeString(ev.Data, func(d connectedData) string { return d.Phone })
		s.set(Status{State: StateConnected, Phone: phone, UpdatedAt: now})
	case EventDisconnected:
		s.set(Status{State: StateDisconnected, UpdatedAt: now})
	case EventLog:
		entry := LogEntry{Level: "info", At: now}
		var d logData
		if err := json.Unmarshal(ev.Data, &d); err == nil && d.Message != "" {
			entry.Message = d.Message
			if d.Level != "" {
				entry.Level = d.Level
			}
		} else {
			entry.Message = decodeString(ev.Data, func(logData) string { return "" })
		}
		s.appendLog(entry)
	default:
		return errUnknownEvent
	}
	s.events.WithLabelValues(ev.Name).Inc()
	return nil
}

func (s *Sync) set(st Status) {
	s.mu.Lock()
	s.status = st
	s.initialized = true
	s.mu.Unlock()
}

func (s *Sync) appendLog(e LogEntry) {
	s.mu.Lock()
	if len(s.logs) == maxLogEntries {
		copy(s.logs, s.logs[1:])
		s.logs = s.logs[:maxLogEntries-1]
	}
	s.logs = append(s.logs, e)
	s.mu.Unlock()
}

// decodeString reads an event payload that is either a bare JSON string or
// an object, in which case pick extracts the field of interest.
func decodeString[T any](raw json.RawMessage, pick func(T) string) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var obj T
	if err := json.Unmarshal(raw, &obj); err == nil {
		return pick(obj)
	}
	return ""
}
