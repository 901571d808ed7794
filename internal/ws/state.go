package ws

import "sync/atomic"

// ConnState represents the lifecycle phase of a stream session.
type ConnState int32

// Session lifecycle states. Authenticating and Subscribing are transient
// phases of connection setup; Streaming is the only state in which data
// frames are expected.
const (
	// StateDisconnected indicates no connection exists and none is in progress.
	StateDisconnected ConnState = iota
	// StateConnecting indicates the transport handshake is in progress.
	StateConnecting
	// StateAuthenticating indicates the private-channel auth frame is being sent.
	StateAuthenticating
	// StateSubscribing indicates subscribe frames have been sent and the
	// session is waiting for first data.
	StateSubscribing
	// StateStreaming indicates the session is live and delivering frames.
	StateStreaming
	// StateReconnecting indicates the session lost its connection and is
	// backing off before another attempt.
	StateReconnecting
	// StateClosed indicates the session was shut down and will not reconnect.
	StateClosed
)

// String returns the string representation of the connection state.
func (s ConnState) String() string {
	names := [...]string{
		"disconnected",
		"connecting",
		"authenticating",
		"subscribing",
		"streaming",
		"reconnecting",
		"closed",
	}
	if s < 0 || int(s) >= len(names) {
		return "unknown"
	}
	return names[s]
}

// State provides thread-safe atomic access to a ConnState value.
type State struct {
	state atomic.Int32
}

// Load returns the current connection state.
func (s *State) Load() ConnState {
	return ConnState(s.state.Load())
}

// Store sets the connection state to the given value.
func (s *State) Store(state ConnState) {
	s.state.Store(int32(state))
}

// CompareAndSwap atomically compares the current state with old and swaps to
// new if equal. It returns true if the swap was performed.
func (s *State) CompareAndSwap(old, new ConnState) bool {
	return s.state.CompareAndSwap(int32(old), int32(new))
}
