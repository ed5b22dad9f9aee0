package binance

// stream.go: combined-stream client for the price feed.
//
// One StreamClient per round instance. Lifecycle:
//   - Start dials once and sends a single SUBSCRIBE naming every stream.
//   - Any drop (read error, dial failure, subscribe failure) arms exactly one
//     reconnect after a fixed delay, replacing any already-pending timer.
//   - A generation counter guards against overlap: a timer or read loop that
//     outlived its connection is a no-op.
//   - Stop closes deliberately and suppresses every further reconnect.

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
	"github.com/masterstrokeglobal/leadboard/internal/ports"
)

const (
	// DefaultStreamURL is the production combined-stream endpoint.
	DefaultStreamURL = "wss://stream.binance.com:9443/stream"

	defaultReconnectDelay = 3 * time.Second
)

// subscribeRequest is the wire shape of the subscription message.
type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// streamEnvelope is the combined-stream wrapper around each tick.
type streamEnvelope struct {
	Data struct {
		Symbol string `json:"s"`
		Price  string `json:"p"`
	} `json:"data"`
}

// Config configures a StreamClient. Dialer and ReconnectDelay default to the
// gorilla transport and 3s; tests inject fakes.
type Config struct {
	URL            string
	Streams        []string
	OnTick         ports.TickHandler
	OnState        ports.StateHandler
	Dialer         Dialer
	ReconnectDelay time.Duration
}

// StreamClient implements ports.PriceFeed over a websocket combined stream.
type StreamClient struct {
	url     string
	streams []string
	onTick  ports.TickHandler
	onState ports.StateHandler
	dialer  Dialer
	delay   time.Duration

	mu      sync.Mutex
	ctx     context.Context
	conn    Conn
	state   domain.ConnState
	gen     int // bumped on every new connection attempt and on Stop
	retry   *time.Timer
	stopped bool
}

// NewStreamClient creates a client for the given streams. It does not
// connect until Start.
func NewStreamClient(cfg Config) *StreamClient {
	if cfg.URL == "" {
		cfg.URL = DefaultStreamURL
	}
	if cfg.Dialer == nil {
		cfg.Dialer = gorillaDialer{}
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &StreamClient{
		url:     cfg.URL,
		streams: cfg.Streams,
		onTick:  cfg.OnTick,
		onState: cfg.OnState,
		dialer:  cfg.Dialer,
		delay:   cfg.ReconnectDelay,
		state:   domain.ConnDisconnected,
	}
}

// Factory adapts NewStreamClient to ports.FeedFactory for the given endpoint.
// reconnectDelay <= 0 keeps the 3s default.
func Factory(url string, reconnectDelay time.Duration) ports.FeedFactory {
	return func(streams []string, onTick ports.TickHandler, onState ports.StateHandler) ports.PriceFeed {
		return NewStreamClient(Config{
			URL:            url,
			Streams:        streams,
			OnTick:         onTick,
			OnState:        onState,
			ReconnectDelay: reconnectDelay,
		})
	}
}

// Start opens the connection. With no streams it does nothing: there is
// nothing to subscribe to.
func (s *StreamClient) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.ctx = ctx
	if len(s.streams) == 0 {
		s.mu.Unlock()
		slog.Warn("binance: empty stream list, not connecting")
		return nil
	}
	gen := s.newAttemptLocked()
	s.mu.Unlock()

	go s.dial(gen)
	return nil
}

// Stop closes the connection deliberately. No reconnect is scheduled after a
// deliberate close. Idempotent.
func (s *StreamClient) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.gen++ // invalidate in-flight dials, read loops and timers
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	conn := s.conn
	s.conn = nil
	s.setStateLocked(domain.ConnDisconnected)
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// State returns the current connection state.
func (s *StreamClient) State() domain.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// newAttemptLocked begins a new connection generation: any previous
// connection is closed first so at most one can be live.
func (s *StreamClient) newAttemptLocked() int {
	s.gen++
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.setStateLocked(domain.ConnConnecting)
	return s.gen
}

func (s *StreamClient) dial(gen int) {
	conn, err := s.dialer.Dial(s.ctx, s.url)

	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		slog.Warn("binance: dial failed", "url", s.url, "err", err)
		s.scheduleReconnectLocked(gen)
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.setStateLocked(domain.ConnConnected)
	s.mu.Unlock()

	if err := conn.WriteJSON(subscribeRequest{Method: "SUBSCRIBE", Params: s.streams, ID: 1}); err != nil {
		slog.Warn("binance: subscribe failed", "err", err)
		s.handleDrop(gen)
		return
	}
	slog.Info("binance: subscribed", "streams", len(s.streams))

	go s.readLoop(conn, gen)
}

// readLoop delivers ticks in arrival order. A malformed message is logged
// and skipped; it never tears down the connection.
func (s *StreamClient) readLoop(conn Conn, gen int) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.handleDrop(gen)
			return
		}
		symbol, price, ok := parseTick(data)
		if !ok {
			slog.Debug("binance: ignoring non-tick message", "len", len(data))
			continue
		}
		s.onTick(symbol, price)
	}
}

// handleDrop reacts to the loss of the connection identified by gen. Stale
// generations are ignored: a newer connection already took over.
func (s *StreamClient) handleDrop(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || gen != s.gen {
		return
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	slog.Warn("binance: connection lost, reconnecting", "delay", s.delay)
	s.scheduleReconnectLocked(gen)
}

// scheduleReconnectLocked arms exactly one reconnect attempt, cancelling any
// pending timer first.
func (s *StreamClient) scheduleReconnectLocked(gen int) {
	s.setStateLocked(domain.ConnDisconnected)
	if s.retry != nil {
		s.retry.Stop()
	}
	s.retry = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.stopped || gen != s.gen || s.state == domain.ConnConnected {
			s.mu.Unlock()
			return
		}
		next := s.newAttemptLocked()
		s.mu.Unlock()
		s.dial(next)
	})
}

func (s *StreamClient) setStateLocked(st domain.ConnState) {
	if s.state == st {
		return
	}
	s.state = st
	if s.onState != nil {
		s.onState(st)
	}
}

// parseTick extracts (symbol, price) from a combined-stream message.
// Subscription acks and anything else without a data payload report !ok.
func parseTick(data []byte) (string, float64, bool) {
	var env streamEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", 0, false
	}
	if env.Data.Symbol == "" || env.Data.Price == "" {
		return "", 0, false
	}
	price, err := strconv.ParseFloat(env.Data.Price, 64)
	if err != nil {
		return "", 0, false
	}
	return env.Data.Symbol, price, true
}
