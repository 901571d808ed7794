// Package keyring stores the API key pairs available to a client and picks
// which one signs the next request. Multiple keys can be registered to
// spread signed traffic or to fail over when one key starts getting
// rejected; secrets are never exposed through logging.
package keyring

import (
	"fmt"
	"sync"
	"time"

	"upbit/internal/auth"
	"upbit/pkg/core"
)

// RotationStrategy controls when the ring advances to the next key.
type RotationStrategy int

const (
	// RotateManually keeps the current key until Rotate is called.
	RotateManually RotationStrategy = iota
	// RotateRoundRobin advances after every signed request.
	RotateRoundRobin
	// RotateOnRateLimit advances when the current key hits a quota rejection.
	RotateOnRateLimit
)

// Entry is one registered key pair with its usage state.
type Entry struct {
	Credentials core.Credentials
	Disabled    bool
	LastUsed    time.Time
	ErrorCount  int

	signer *auth.Signer
}

// Ring is a thread-safe set of key pairs with a rotation policy.
type Ring struct {
	mu       sync.RWMutex
	entries  []*Entry
	current  int
	strategy RotationStrategy
}

// New creates a Ring with the given strategy. Keys are added with Add.
func New(strategy RotationStrategy) *Ring {
	return &Ring{strategy: strategy}
}

// Add registers a key pair. Duplicate access keys are ignored.
func (r *Ring) Add(creds core.Credentials) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Credentials.AccessKey == creds.AccessKey {
			return
		}
	}
	r.entries = append(r.entries, &Entry{
		Credentials: creds,
		signer:      auth.NewSigner(creds),
	})
}

// Len returns the number of registered keys.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Signer returns the signer for the current enabled key, or nil when no
// usable key is registered.
func (r *Ring) Signer() *auth.Signer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := 0; i < len(r.entries); i++ {
		idx := (r.current + i) % len(r.entries)
		if !r.entries[idx].Disabled {
			return r.entries[idx].signer
		}
	}
	return nil
}

// MarkUsed records a signed request on the current key and applies
// round-robin rotation when configured.
func (r *Ring) MarkUsed() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return
	}
	r.entries[r.current].LastUsed = time.Now()
	if r.strategy == RotateRoundRobin {
		r.rotateLocked()
	}
}

// OnRateLimit records a quota rejection on the current key and rotates when
// the strategy calls for it.
func (r *Ring) OnRateLimit() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return
	}
	r.entries[r.current].ErrorCount++
	if r.strategy == RotateOnRateLimit {
		r.rotateLocked()
	}
}

// Rotate advances to the next enabled key.
func (r *Ring) Rotate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotateLocked()
}

func (r *Ring) rotateLocked() {
	if len(r.entries) == 0 {
		return
	}
	start := r.current
	for {
		r.current = (r.current + 1) % len(r.entries)
		if !r.entries[r.current].Disabled || r.current == start {
			return
		}
	}
}

// Disable takes the key with the given access key out of rotation.
func (r *Ring) Disable(accessKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Credentials.AccessKey == accessKey {
			e.Disabled = true
			return
		}
	}
}

// Enable puts a previously disabled key back into rotation and clears its
// error count.
func (r *Ring) Enable(accessKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Credentials.AccessKey == accessKey {
			e.Disabled = false
			e.ErrorCount = 0
			return
		}
	}
}

// String renders the entry with the access key masked. The secret never
// appears in any representation.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{AccessKey:%s}", maskKey(e.Credentials.AccessKey))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
