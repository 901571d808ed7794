// Package ws owns the stream connection: connect, authenticate, subscribe,
// keep alive, reconnect with backoff, and replay the subscription registry.
// Callers receive raw frames in arrival order and never touch the socket.
package ws

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"

	"upbit/internal/auth"
	"upbit/pkg/core"
)

// Config holds the stream session parameters.
type Config struct {
	// URL is the websocket endpoint.
	URL string
	// PingInterval is the spacing between keepalive pings.
	PingInterval time.Duration
	// PongWait is the grace beyond PingInterval before the connection is
	// considered dead.
	PongWait time.Duration
	// SubscribeGrace is how long after subscribing the session waits for
	// first data before treating the quiet connection as live anyway.
	SubscribeGrace time.Duration
	// ReconnectBaseWait is the first backoff delay.
	ReconnectBaseWait time.Duration
	// ReconnectMaxWait caps the backoff delay.
	ReconnectMaxWait time.Duration
	// ReconnectMaxAttempts bounds consecutive failed reconnects; zero means
	// unlimited.
	ReconnectMaxAttempts int
	// DecodeFailureThreshold is the run of consecutive undecodable frames
	// treated as a dead connection.
	DecodeFailureThreshold int
	// BufferSize is the capacity of the outbound message channel.
	BufferSize int
}

func (c *Config) applyDefaults() {
	if c.PingInterval == 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongWait == 0 {
		c.PongWait = 10 * time.Second
	}
	if c.SubscribeGrace == 0 {
		c.SubscribeGrace = 5 * time.Second
	}
	if c.ReconnectBaseWait == 0 {
		c.ReconnectBaseWait = 1 * time.Second
	}
	if c.ReconnectMaxWait == 0 {
		c.ReconnectMaxWait = 60 * time.Second
	}
	if c.DecodeFailureThreshold == 0 {
		c.DecodeFailureThreshold = 5
	}
	if c.BufferSize == 0 {
		c.BufferSize = 256
	}
}

// statusUp is the server's reply to an application-level ping. It carries no
// market data and is consumed by the session.
const statusUp = `{"status":"UP"}`

// Session manages one stream connection through its full lifecycle. Frames
// arrive on Messages in connection arrival order; terminal failures arrive
// on Errors.
type Session struct {
	config   Config
	state    *State
	registry *Registry
	signer   *auth.Signer
	handler  *eventHandler
	logger   zerolog.Logger

	msgCh  chan []byte
	errCh  chan error
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu                sync.Mutex
	conn              *gws.Conn
	connectedChan     chan struct{}
	authToken         string
	reconnectAttempts int
	decodeFailures    int
	graceTimer        *time.Timer
	intentionalClose  bool
}

type eventHandler struct {
	session *Session
}

// NewSession creates a Session over the given registry. signer may be nil
// when only public channels will be used.
func NewSession(config Config, registry *Registry, signer *auth.Signer) *Session {
	config.applyDefaults()
	s := &Session{
		config:        config,
		state:         &State{},
		registry:      registry,
		signer:        signer,
		logger:        zerolog.Nop(),
		msgCh:         make(chan []byte, config.BufferSize),
		errCh:         make(chan error, 1),
		stopCh:        make(chan struct{}),
		connectedChan: make(chan struct{}),
	}
	s.state.Store(StateDisconnected)
	s.handler = &eventHandler{session: s}
	return s
}

// SetLogger configures the logger for the session.
func (s *Session) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// State returns the current lifecycle state.
func (s *Session) State() ConnState {
	return s.state.Load()
}

// Messages returns the channel of raw inbound frames.
func (s *Session) Messages() <-chan []byte {
	return s.msgCh
}

// Errors returns the channel of terminal session errors.
func (s *Session) Errors() <-chan error {
	return s.errCh
}

// Registry returns the session's subscription registry.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Connect establishes the connection, authenticates when private channels
// are registered, and announces the registry's subscriptions.
func (s *Session) Connect(ctx context.Context) error {
	if !s.state.CompareAndSwap(StateDisconnected, StateConnecting) {
		current := s.state.Load()
		if current == StateClosed {
			return core.ErrStreamClosed
		}
		return fmt.Errorf("invalid state for connect: %s", current)
	}
	return s.establish(ctx)
}

// establish dials, waits for the open event, then runs auth and subscribe.
// The caller must already hold the Connecting state.
func (s *Session) establish(ctx context.Context) error {
	socket, _, err := gws.NewClient(s.handler, &gws.ClientOption{
		Addr: s.config.URL,
	})
	if err != nil {
		s.state.Store(StateDisconnected)
		return core.NewClientError(core.ErrorTypeConnection, fmt.Sprintf("connect stream: %v", err))
	}

	s.mu.Lock()
	s.conn = socket
	s.decodeFailures = 0
	s.intentionalClose = false
	connected := s.connectedChan
	s.mu.Unlock()

	s.wg.Go(func() {
		socket.ReadLoop()
	})

	select {
	case <-connected:
	case <-ctx.Done():
		s.teardown(socket)
		return ctx.Err()
	case <-s.stopCh:
		s.abandon(socket)
		return core.ErrStreamClosed
	}

	return s.announce(socket)
}

// announce runs the post-connect phases: mint the auth token if any private
// channel is registered, send every subscribe frame, then wait for first
// data or the grace window.
func (s *Session) announce(socket *gws.Conn) error {
	token := ""
	if s.registry.HasPrivate() {
		s.state.Store(StateAuthenticating)
		if s.signer == nil {
			s.teardown(socket)
			return core.ErrNoCredentials
		}
		var err error
		token, err = s.signer.Token()
		if err != nil {
			s.teardown(socket)
			return err
		}
	}

	s.mu.Lock()
	s.authToken = token
	s.mu.Unlock()

	s.state.Store(StateSubscribing)

	frames, err := s.registry.Frames(token)
	if err != nil {
		s.teardown(socket)
		return core.NewClientError(core.ErrorTypeConnection, fmt.Sprintf("encode subscribe frames: %v", err))
	}
	for _, frame := range frames {
		if err := socket.WriteMessage(gws.OpcodeText, frame); err != nil {
			s.teardown(socket)
			return core.NewClientError(core.ErrorTypeConnection, fmt.Sprintf("send subscribe frame: %v", err))
		}
	}
	s.logger.Info().Int("tickets", len(frames)).Msg("subscriptions announced")

	if len(frames) == 0 {
		s.markStreaming()
		return nil
	}

	// A quiet market sends nothing after subscribe. Silence through the
	// grace window counts as a live connection, not a failure.
	s.mu.Lock()
	s.graceTimer = time.AfterFunc(s.config.SubscribeGrace, s.markStreaming)
	s.mu.Unlock()
	return nil
}

// abandon closes the socket after marking the close as intentional, so the
// resulting OnClose does not start a reconnect the caller never asked for.
func (s *Session) abandon(socket *gws.Conn) {
	s.mu.Lock()
	s.intentionalClose = true
	s.mu.Unlock()
	_ = socket.NetConn().Close()
}

func (s *Session) teardown(socket *gws.Conn) {
	s.abandon(socket)
	// Closed is terminal; only live setup states fall back to Disconnected.
	for {
		current := s.state.Load()
		if current == StateClosed || current == StateDisconnected {
			return
		}
		if s.state.CompareAndSwap(current, StateDisconnected) {
			return
		}
	}
}

// markStreaming enters the Streaming state and resets the reconnect attempt
// counter. Safe to call from both the first data frame and the grace timer.
func (s *Session) markStreaming() {
	if s.state.CompareAndSwap(StateSubscribing, StateStreaming) {
		s.mu.Lock()
		s.reconnectAttempts = 0
		if s.graceTimer != nil {
			s.graceTimer.Stop()
			s.graceTimer = nil
		}
		s.mu.Unlock()
		s.logger.Info().Msg("stream live")
	}
}

// Subscribe registers a channel under the given ticket (a fresh ticket is
// generated when empty) and, when the connection is already up, announces it
// immediately. Returns the ticket.
func (s *Session) Subscribe(ticket string, ch Channel) (string, error) {
	if s.state.Load() == StateClosed {
		return "", core.ErrStreamClosed
	}
	if IsPrivateChannel(ch.Type) && s.signer == nil {
		return "", core.ErrNoCredentials
	}

	ticket = s.registry.Add(ticket, ch)

	state := s.state.Load()
	if state != StateSubscribing && state != StateStreaming {
		return ticket, nil
	}

	s.mu.Lock()
	socket := s.conn
	token := s.authToken
	s.mu.Unlock()
	if socket == nil {
		return ticket, nil
	}

	if IsPrivateChannel(ch.Type) && token == "" {
		var err error
		token, err = s.signer.Token()
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.authToken = token
		s.mu.Unlock()
	}

	for _, sub := range s.registry.Snapshot() {
		if sub.Ticket != ticket {
			continue
		}
		frame, err := sub.Frame(token)
		if err != nil {
			return "", core.NewClientError(core.ErrorTypeConnection, fmt.Sprintf("encode subscribe frame: %v", err))
		}
		if err := socket.WriteMessage(gws.OpcodeText, frame); err != nil {
			return "", core.NewClientError(core.ErrorTypeConnection, fmt.Sprintf("send subscribe frame: %v", err))
		}
	}
	return ticket, nil
}

// Unsubscribe drops codes from a channel type in the registry. The server
// accepts no unsubscribe message, so already-flowing frames keep arriving
// until the next reconnect replays the reduced set; callers filter locally
// in the meantime.
func (s *Session) Unsubscribe(channelType string, codes []string) {
	s.registry.RemoveChannel(channelType, codes)
}

// Close shuts the session down. Channels are closed after the read loop
// stops, so no frame is delivered after Close returns.
func (s *Session) Close() error {
	// The reconnect loop may be moving the state between Reconnecting and
	// Connecting while we pin it; keep swapping until Closed sticks.
	for {
		current := s.state.Load()
		if current == StateClosed {
			return nil
		}
		if s.state.CompareAndSwap(current, StateClosed) {
			break
		}
	}

	close(s.stopCh)

	s.mu.Lock()
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	if s.conn != nil {
		_ = s.conn.NetConn().Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.msgCh)
	close(s.errCh)
	return nil
}

func (h *eventHandler) OnOpen(socket *gws.Conn) {
	s := h.session

	s.mu.Lock()
	select {
	case <-s.connectedChan:
	default:
		close(s.connectedChan)
	}
	s.mu.Unlock()

	s.logger.Info().Str("url", s.config.URL).Msg("stream connected")
	_ = socket.SetDeadline(time.Now().Add(s.config.PingInterval + s.config.PongWait))

	s.wg.Go(func() { s.pingLoop(socket) })
}

func (h *eventHandler) OnClose(socket *gws.Conn, err error) {
	s := h.session

	s.mu.Lock()
	s.connectedChan = make(chan struct{})
	intentional := s.intentionalClose
	s.intentionalClose = false
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	s.mu.Unlock()

	if s.state.Load() == StateClosed {
		return
	}
	s.state.Store(StateDisconnected)

	if intentional {
		return
	}

	s.logger.Warn().Err(err).Str("url", s.config.URL).Msg("stream disconnected")

	select {
	case <-s.stopCh:
	default:
		go s.attemptReconnect()
	}
}

func (h *eventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.session.config.PingInterval + h.session.config.PongWait))
	_ = socket.WritePong(nil)
}

func (h *eventHandler) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.session.config.PingInterval + h.session.config.PongWait))
}

func (h *eventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	s := h.session

	// Any inbound frame proves the connection is alive.
	_ = socket.SetDeadline(time.Now().Add(s.config.PingInterval + s.config.PongWait))

	data := message.Bytes()
	if len(data) == 0 || string(data) == statusUp {
		return
	}

	if !sonic.ConfigDefault.Valid(data) {
		s.mu.Lock()
		s.decodeFailures++
		failures := s.decodeFailures
		s.mu.Unlock()

		s.logger.Warn().Int("consecutive", failures).Msg("undecodable frame skipped")
		if failures >= s.config.DecodeFailureThreshold {
			s.logger.Error().Int("consecutive", failures).Msg("decode failure storm, dropping connection")
			_ = socket.NetConn().Close()
		}
		return
	}

	s.mu.Lock()
	s.decodeFailures = 0
	s.mu.Unlock()

	s.markStreaming()

	// Retain the payload: the gws message buffer is recycled on Close.
	frame := make([]byte, len(data))
	copy(frame, data)

	select {
	case s.msgCh <- frame:
	case <-s.stopCh:
	default:
		s.logger.Warn().Msg("message buffer full, dropping frame")
	}
}

func (s *Session) pingLoop(socket *gws.Conn) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := socket.WritePing(nil); err != nil {
				return
			}
		case <-s.stopCh:
			return
		}
	}
}

// attemptReconnect loops until the connection is restored, the session is
// closed, or the attempt budget runs out.
func (s *Session) attemptReconnect() {
	if !s.state.CompareAndSwap(StateDisconnected, StateReconnecting) {
		return
	}

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.mu.Lock()
		attempts := s.reconnectAttempts
		s.reconnectAttempts++
		s.mu.Unlock()

		if s.config.ReconnectMaxAttempts > 0 && attempts >= s.config.ReconnectMaxAttempts {
			s.logger.Error().Int("attempts", attempts).Msg("reconnect attempts exhausted")
			select {
			case s.errCh <- core.ErrReconnectExhausted:
			default:
			}
			s.state.Store(StateDisconnected)
			return
		}

		wait := s.backoff(attempts)
		s.logger.Info().Dur("wait", wait).Int("attempt", attempts+1).Msg("reconnecting")

		select {
		case <-time.After(wait):
		case <-s.stopCh:
			return
		}

		if !s.state.CompareAndSwap(StateReconnecting, StateConnecting) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.establish(ctx)
		cancel()
		if err != nil {
			s.logger.Error().Err(err).Int("attempt", attempts+1).Msg("reconnect failed")
			if !s.state.CompareAndSwap(StateDisconnected, StateReconnecting) {
				return
			}
			continue
		}

		s.logger.Info().Msg("reconnected, subscriptions replayed")
		return
	}
}

// backoff doubles the base delay per consecutive failed attempt, caps it at
// the configured maximum, and spreads concurrent clients with equal jitter
// over the upper half of the window.
func (s *Session) backoff(attempts int) time.Duration {
	if attempts > 30 {
		attempts = 30
	}
	wait := min(s.config.ReconnectBaseWait<<uint(attempts), s.config.ReconnectMaxWait)
	half := wait / 2
	if half <= 0 {
		return wait
	}
	return half + rand.N(half)
}
