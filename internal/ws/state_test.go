package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnState_String(t *testing.T) {
	tests := []struct {
		state ConnState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateAuthenticating, "authenticating"},
		{StateSubscribing, "subscribing"},
		{StateStreaming, "streaming"},
		{StateReconnecting, "reconnecting"},
		{StateClosed, "closed"},
		{ConnState(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestState_CompareAndSwap(t *testing.T) {
	var s State
	s.Store(StateDisconnected)

	assert.True(t, s.CompareAndSwap(StateDisconnected, StateConnecting))
	assert.Equal(t, StateConnecting, s.Load())

	// A stale expectation must not overwrite the current state.
	assert.False(t, s.CompareAndSwap(StateDisconnected, StateStreaming))
	assert.Equal(t, StateConnecting, s.Load())
}
