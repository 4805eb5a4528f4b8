// Package notify maintains a best-effort live channel from the backend's
// notification service to the UI for one authenticated user. Stream
// failures are never surfaced to the caller; the subscriber reconnects
// forever with a fixed delay until closed.
package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/laporkota/laporkit/internal/status"
)

// State of the subscription.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config parameterizes one subscription.
type Config struct {
	// BaseURL of the notification service.
	BaseURL string

	// UserID and Token are both required; without either, Start is a
	// silent no-op and the caller retries by constructing a new
	// subscriber once credentials exist.
	UserID string
	Token  string

	// AccessRole is "citizen" or "admin".
	AccessRole string

	// Department scopes admin streams to one department's categories.
	Department string

	// ReconnectDelay defaults to 5s. There is deliberately no backoff
	// growth: the stream is low-frequency and the delay is fixed.
	ReconnectDelay time.Duration
}

// Subscriber owns at most one live stream and at most one pending
// reconnect timer. Both are torn down together by Close.
type Subscriber struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	timer  *time.Timer
	active bool
	closed bool

	handlerMu sync.RWMutex
	onStatus  func(StatusUpdate)
	onToast   func(Toast)
}

// New creates a subscriber. It does not open a stream until Start.
func New(cfg Config, logger *slog.Logger) *Subscriber {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		cfg: cfg,
		// No client timeout: the stream is long-lived. Teardown goes
		// through context cancellation instead.
		client: &http.Client{},
		logger: logger,
		state:  StateIdle,
	}
}

// SetStatusHandler swaps the state-update callback. The stream keeps its
// lifetime across handler swaps, so a long-lived subscription always calls
// the current handler.
func (s *Subscriber) SetStatusHandler(fn func(StatusUpdate)) {
	s.handlerMu.Lock()
	s.onStatus = fn
	s.handlerMu.Unlock()
}

// SetToastHandler swaps the toast callback.
func (s *Subscriber) SetToastHandler(fn func(Toast)) {
	s.handlerMu.Lock()
	s.onToast = fn
	s.handlerMu.Unlock()
}

// Start opens the stream. Missing credentials make it a silent no-op.
// Calling Start on an active or closed subscriber does nothing.
func (s *Subscriber) Start() {
	if s.cfg.UserID == "" || s.cfg.Token == "" {
		s.logger.Debug("no credentials, skipping notification subscription")
		return
	}

	s.mu.Lock()
	if s.active || s.closed {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.active = true
	s.cancel = cancel
	s.state = StateConnecting
	s.mu.Unlock()

	go s.run(ctx)
}

// Close tears down the open stream and any pending reconnect timer.
// It is terminal: the subscriber cannot be restarted.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = StateClosed
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.logger.Debug("notification subscription closed")
}

// State returns the current connection state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Subscriber) streamURL() string {
	q := url.Values{}
	q.Set("user_id", s.cfg.UserID)
	q.Set("access_role", s.cfg.AccessRole)
	q.Set("token", s.cfg.Token)
	if s.cfg.Department != "" {
		q.Set("department", s.cfg.Department)
	}
	return s.cfg.BaseURL + "/notifications/subscribe?" + q.Encode()
}

// run performs one connection attempt and consumes the stream until it
// drops. Every exit path other than Close leads to scheduleReconnect.
func (s *Subscriber) run(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.streamURL(), nil)
	if err != nil {
		s.logger.Error("bad stream request", "error", err)
		s.scheduleReconnect(ctx)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("stream connect failed", "error", err)
		s.scheduleReconnect(ctx)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("stream rejected", "status", resp.StatusCode)
		s.scheduleReconnect(ctx)
		return
	}

	s.setState(StateConnected)
	s.logger.Info("notification stream connected", "user_id", s.cfg.UserID, "access_role", s.cfg.AccessRole)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() > 0 {
				s.handleMessage(data.String())
				data.Reset()
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "data: "):
			data.WriteString(strings.TrimPrefix(line, "data: "))
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		}
	}

	if ctx.Err() != nil {
		return
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("stream read error", "error", err)
	} else {
		s.logger.Warn("stream closed by server")
	}
	s.scheduleReconnect(ctx)
}

// scheduleReconnect arms the single retry timer. The subscriber retries
// forever; there is no budget and no backoff growth.
func (s *Subscriber) scheduleReconnect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.timer != nil {
		return
	}
	s.state = StateReconnecting
	reconnectsTotal.Inc()
	s.logger.Info("reconnecting notification stream", "delay", s.cfg.ReconnectDelay)

	s.timer = time.AfterFunc(s.cfg.ReconnectDelay, func() {
		s.mu.Lock()
		s.timer = nil
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.state = StateConnecting
		s.mu.Unlock()
		go s.run(ctx)
	})
}

func (s *Subscriber) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Subscriber) handleMessage(data string) {
	var ev Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		parseFailuresTotal.Inc()
		s.logger.Warn("dropping unparseable stream message", "error", err)
		return
	}
	if ev.Type == "" {
		parseFailuresTotal.Inc()
		s.logger.Warn("dropping stream message without type")
		return
	}
	if ev.Type == TypeConnected {
		s.logger.Debug("stream handshake received")
		return
	}

	eventsTotal.WithLabelValues(ev.Type).Inc()

	if ev.Type == TypeStatusUpdate {
		if !status.Known(ev.Status) {
			s.logger.Warn("unrecognized report status, treating as pending", "status", ev.Status)
		}
		update := StatusUpdate{
			ReportID: ev.ReportID,
			Status:   status.Normalize(ev.Status),
		}
		s.handlerMu.RLock()
		onStatus := s.onStatus
		s.handlerMu.RUnlock()
		if onStatus != nil {
			onStatus(update)
		}
		s.toast(Toast{
			Level:   "info",
			Title:   orDefault(ev.Title, "Report update"),
			Message: orDefault(ev.Message, "Status changed to "+string(update.Status)),
		})
		return
	}

	s.toast(Toast{
		Level:   "success",
		Title:   orDefault(ev.Title, "Notification"),
		Message: ev.Message,
	})
}

func (s *Subscriber) toast(t Toast) {
	s.handlerMu.RLock()
	onToast := s.onToast
	s.handlerMu.RUnlock()
	if onToast != nil {
		onToast(t)
	}
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
