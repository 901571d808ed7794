package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upbit/internal/auth"
	"upbit/pkg/core"
)

func newTestSession(signer *auth.Signer) *Session {
	return NewSession(Config{
		URL:               "wss://example.invalid/websocket/v1",
		ReconnectBaseWait: time.Second,
		ReconnectMaxWait:  60 * time.Second,
	}, NewRegistry(), signer)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, 10*time.Second, cfg.PongWait)
	assert.Equal(t, 5*time.Second, cfg.SubscribeGrace)
	assert.Equal(t, time.Second, cfg.ReconnectBaseWait)
	assert.Equal(t, 60*time.Second, cfg.ReconnectMaxWait)
	assert.Equal(t, 5, cfg.DecodeFailureThreshold)
	assert.Equal(t, 256, cfg.BufferSize)

	// Explicit values survive.
	cfg = Config{PingInterval: time.Second, BufferSize: 8}
	cfg.applyDefaults()
	assert.Equal(t, time.Second, cfg.PingInterval)
	assert.Equal(t, 8, cfg.BufferSize)
}

func TestSession_InitialState(t *testing.T) {
	s := newTestSession(nil)
	assert.Equal(t, StateDisconnected, s.State())
}

func TestSession_Subscribe_WhileDisconnected(t *testing.T) {
	s := newTestSession(nil)

	ticket, err := s.Subscribe("", Channel{Type: ChannelTicker, Codes: []string{"KRW-BTC"}})
	require.NoError(t, err)
	assert.NotEmpty(t, ticket)

	// The registry records the wish; the wire announcement happens on connect.
	assert.True(t, s.Registry().Contains(ChannelTicker, "KRW-BTC"))
}

func TestSession_Subscribe_PrivateWithoutSigner(t *testing.T) {
	s := newTestSession(nil)

	_, err := s.Subscribe("", Channel{Type: ChannelMyOrder})
	assert.ErrorIs(t, err, core.ErrNoCredentials)
}

func TestSession_Subscribe_PrivateWithSigner(t *testing.T) {
	signer := auth.NewSigner(core.Credentials{AccessKey: "ak", SecretKey: "sk"})
	s := newTestSession(signer)

	ticket, err := s.Subscribe("", Channel{Type: ChannelMyOrder})
	require.NoError(t, err)
	assert.NotEmpty(t, ticket)
	assert.True(t, s.Registry().HasPrivate())
}

func TestSession_Close_ThenSubscribe(t *testing.T) {
	s := newTestSession(nil)
	require.NoError(t, s.Close())

	assert.Equal(t, StateClosed, s.State())

	_, err := s.Subscribe("", Channel{Type: ChannelTicker, Codes: []string{"KRW-BTC"}})
	assert.ErrorIs(t, err, core.ErrStreamClosed)
}

func TestSession_Close_ThenConnect(t *testing.T) {
	s := newTestSession(nil)
	require.NoError(t, s.Close())

	err := s.Connect(context.Background())
	assert.ErrorIs(t, err, core.ErrStreamClosed)
}

func TestSession_Close_Idempotent(t *testing.T) {
	s := newTestSession(nil)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSession_Close_DrainsChannels(t *testing.T) {
	s := newTestSession(nil)
	require.NoError(t, s.Close())

	_, ok := <-s.Messages()
	assert.False(t, ok)
	_, ok2 := <-s.Errors()
	assert.False(t, ok2)
}

func TestSession_Unsubscribe_UpdatesRegistry(t *testing.T) {
	s := newTestSession(nil)
	_, err := s.Subscribe("t1", Channel{Type: ChannelTicker, Codes: []string{"KRW-BTC", "KRW-ETH"}})
	require.NoError(t, err)

	s.Unsubscribe(ChannelTicker, []string{"KRW-BTC"})
	assert.False(t, s.Registry().Contains(ChannelTicker, "KRW-BTC"))
	assert.True(t, s.Registry().Contains(ChannelTicker, "KRW-ETH"))
}

func TestSession_Backoff_Bounds(t *testing.T) {
	s := newTestSession(nil)

	for attempts := 0; attempts < 10; attempts++ {
		expected := min(time.Second<<uint(attempts), 60*time.Second)
		for i := 0; i < 20; i++ {
			wait := s.backoff(attempts)
			assert.GreaterOrEqual(t, wait, expected/2, "attempt %d", attempts)
			assert.LessOrEqual(t, wait, expected, "attempt %d", attempts)
		}
	}
}

func TestSession_Backoff_CapsAttemptShift(t *testing.T) {
	s := newTestSession(nil)

	// Attempt counts past the shift cap must not overflow the delay.
	wait := s.backoff(500)
	assert.LessOrEqual(t, wait, 60*time.Second)
	assert.Greater(t, wait, time.Duration(0))
}

// streamServer is a local websocket endpoint recording every connection and
// every text frame it receives.
type streamServer struct {
	gws.BuiltinEventHandler

	mu     sync.Mutex
	conns  []*gws.Conn
	frames []string
}

func (s *streamServer) OnOpen(socket *gws.Conn) {
	s.mu.Lock()
	s.conns = append(s.conns, socket)
	s.mu.Unlock()
}

func (s *streamServer) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	s.mu.Lock()
	s.frames = append(s.frames, string(message.Bytes()))
	s.mu.Unlock()
}

func (s *streamServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *streamServer) waitFrames(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.frames) >= n {
			out := append([]string(nil), s.frames...)
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames", n)
	return nil
}

// dropAll closes every accepted connection from the server side.
func (s *streamServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.NetConn().Close()
	}
}

func startStreamServer(t *testing.T) (*streamServer, string) {
	t.Helper()

	handler := &streamServer{}
	upgrader := gws.NewUpgrader(handler, &gws.ServerOption{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r)
		if err != nil {
			return
		}
		go socket.ReadLoop()
	}))
	t.Cleanup(server.Close)

	return handler, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSession_ReconnectReplaysRegistry(t *testing.T) {
	server, url := startStreamServer(t)

	s := NewSession(Config{
		URL:               url,
		SubscribeGrace:    50 * time.Millisecond,
		ReconnectBaseWait: 20 * time.Millisecond,
		ReconnectMaxWait:  100 * time.Millisecond,
	}, NewRegistry(), nil)
	defer s.Close()

	_, err := s.Subscribe("t1", Channel{Type: ChannelTicker, Codes: []string{"KRW-BTC"}})
	require.NoError(t, err)
	_, err = s.Subscribe("t2", Channel{Type: ChannelTrade, Codes: []string{"KRW-ETH"}})
	require.NoError(t, err)

	require.NoError(t, s.Connect(context.Background()))

	first := server.waitFrames(t, 2)
	assert.Contains(t, first[0], `"ticket":"t1"`)
	assert.Contains(t, first[0], `"KRW-BTC"`)
	assert.Contains(t, first[1], `"ticket":"t2"`)
	require.Eventually(t, func() bool { return s.State() == StateStreaming },
		2*time.Second, 10*time.Millisecond)

	server.dropAll()

	// One resubscription frame per ticket, identical to the originals.
	replayed := server.waitFrames(t, 4)[2:]
	assert.ElementsMatch(t, first, replayed)
	require.Eventually(t, func() bool { return s.State() == StateStreaming },
		2*time.Second, 10*time.Millisecond)

	s.mu.Lock()
	attempts := s.reconnectAttempts
	s.mu.Unlock()
	assert.Zero(t, attempts, "streaming entry must reset the attempt counter")
}

func TestSession_FailedConnectDoesNotReconnect(t *testing.T) {
	server, url := startStreamServer(t)

	s := NewSession(Config{
		URL:               url,
		ReconnectBaseWait: 10 * time.Millisecond,
		ReconnectMaxWait:  20 * time.Millisecond,
	}, NewRegistry(), nil)
	defer s.Close()

	// A private channel without credentials fails after the socket opens, so
	// the session tears the connection down itself.
	s.Registry().Add("t1", Channel{Type: ChannelMyOrder})

	err := s.Connect(context.Background())
	require.ErrorIs(t, err, core.ErrNoCredentials)

	// Several backoff windows pass; a rejected connect must stay down.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateDisconnected, s.State())
	assert.Equal(t, 1, server.connCount())
}

func TestSession_Close_DuringStateChurn(t *testing.T) {
	s := newTestSession(nil)
	s.state.Store(StateReconnecting)

	// Mimic the reconnect loop moving the state back and forth while Close
	// tries to pin it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s.state.Load() != StateClosed {
			s.state.CompareAndSwap(StateReconnecting, StateConnecting)
			s.state.CompareAndSwap(StateConnecting, StateReconnecting)
		}
	}()

	require.NoError(t, s.Close())
	<-done

	assert.Equal(t, StateClosed, s.State())
	_, ok := <-s.Messages()
	assert.False(t, ok, "close must tear the channels down even under churn")
}
