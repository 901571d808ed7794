package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upbit/pkg/core"
)

func creds(n string) core.Credentials {
	return core.Credentials{AccessKey: "access-" + n, SecretKey: "secret-" + n}
}

func TestRing_AddAndLen(t *testing.T) {
	ring := New(RotateManually)
	assert.Equal(t, 0, ring.Len())

	ring.Add(creds("a"))
	ring.Add(creds("b"))
	assert.Equal(t, 2, ring.Len())

	// Duplicate access keys are ignored.
	ring.Add(creds("a"))
	assert.Equal(t, 2, ring.Len())
}

func TestRing_Signer_Empty(t *testing.T) {
	ring := New(RotateManually)
	assert.Nil(t, ring.Signer())
}

func TestRing_Signer_SkipsDisabled(t *testing.T) {
	ring := New(RotateManually)
	ring.Add(creds("a"))
	ring.Add(creds("b"))

	ring.Disable("access-a")
	require.NotNil(t, ring.Signer())

	ring.Disable("access-b")
	assert.Nil(t, ring.Signer())

	ring.Enable("access-a")
	assert.NotNil(t, ring.Signer())
}

func TestRing_RoundRobin(t *testing.T) {
	ring := New(RotateRoundRobin)
	ring.Add(creds("a"))
	ring.Add(creds("b"))

	first := ring.Signer()
	ring.MarkUsed()
	second := ring.Signer()

	assert.NotSame(t, first, second)

	ring.MarkUsed()
	assert.Same(t, first, ring.Signer())
}

func TestRing_RotateOnRateLimit(t *testing.T) {
	ring := New(RotateOnRateLimit)
	ring.Add(creds("a"))
	ring.Add(creds("b"))

	first := ring.Signer()
	ring.MarkUsed()
	// Plain use does not rotate under this strategy.
	assert.Same(t, first, ring.Signer())

	ring.OnRateLimit()
	assert.NotSame(t, first, ring.Signer())
}

func TestEntry_String_MasksKey(t *testing.T) {
	e := &Entry{Credentials: core.Credentials{
		AccessKey: "abcdefghijklmnop",
		SecretKey: "super-secret-value",
	}}

	s := e.String()
	assert.Contains(t, s, "abcd****mnop")
	assert.NotContains(t, s, "super-secret-value")
	assert.NotContains(t, s, "abcdefghijklmnop")
}

func TestMaskKey_Short(t *testing.T) {
	assert.Equal(t, "****", maskKey("short"))
}
