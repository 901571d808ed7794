package ws

import (
	"slices"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Channel types carried over the stream. Public channels need no
// authentication; myOrder and myAsset require a signed handshake.
const (
	ChannelTicker    = "ticker"
	ChannelTrade     = "trade"
	ChannelOrderbook = "orderbook"
	ChannelMyOrder   = "myOrder"
	ChannelMyAsset   = "myAsset"
)

// FormatDefault requests full field names in stream payloads.
const FormatDefault = "DEFAULT"

// IsPrivateChannel reports whether a channel type requires authentication.
func IsPrivateChannel(channelType string) bool {
	return channelType == ChannelMyOrder || channelType == ChannelMyAsset
}

// Channel is one typed feed within a subscription: a channel type plus the
// market codes it covers and its delivery options.
type Channel struct {
	Type           string   `json:"type"`
	Codes          []string `json:"codes,omitempty"`
	IsOnlySnapshot bool     `json:"isOnlySnapshot,omitempty"`
	IsOnlyRealtime bool     `json:"isOnlyRealtime,omitempty"`
}

// Subscription is the set of channels grouped under one ticket. The server
// treats each ticket's subscribe frame as one unit, so channels sharing a
// ticket are replayed together.
type Subscription struct {
	Ticket   string
	Channels []Channel
	Format   string
}

// Registry is the session's desired subscription set. It is the single
// source of truth for replay after a reconnect: the server keeps no
// subscription state across connections, so whatever the registry holds is
// what the session re-announces.
type Registry struct {
	mu      sync.RWMutex
	tickets []string
	subs    map[string]*Subscription
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*Subscription)}
}

// Add records a channel under the given ticket and returns the ticket.
// An empty ticket gets a generated one. Adding a channel type that already
// exists under the ticket merges the code sets; duplicate codes collapse.
func (r *Registry) Add(ticket string, ch Channel) string {
	if ticket == "" {
		ticket = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[ticket]
	if !ok {
		sub = &Subscription{Ticket: ticket, Format: FormatDefault}
		r.subs[ticket] = sub
		r.tickets = append(r.tickets, ticket)
	}

	for i := range sub.Channels {
		if sub.Channels[i].Type != ch.Type {
			continue
		}
		for _, code := range ch.Codes {
			if !slices.Contains(sub.Channels[i].Codes, code) {
				sub.Channels[i].Codes = append(sub.Channels[i].Codes, code)
			}
		}
		sub.Channels[i].IsOnlySnapshot = ch.IsOnlySnapshot
		sub.Channels[i].IsOnlyRealtime = ch.IsOnlyRealtime
		return ticket
	}

	ch.Codes = slices.Clone(ch.Codes)
	sub.Channels = append(sub.Channels, ch)
	return ticket
}

// Remove drops the whole subscription under a ticket.
func (r *Registry) Remove(ticket string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[ticket]; !ok {
		return
	}
	delete(r.subs, ticket)
	r.tickets = slices.DeleteFunc(r.tickets, func(t string) bool { return t == ticket })
}

// RemoveChannel drops the given codes from every channel of the given type.
// With no codes, the whole channel type is dropped. Tickets left without
// channels are removed. The change takes effect on the wire at the next
// replay; the server has no unsubscribe message.
func (r *Registry) RemoveChannel(channelType string, codes []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ticket := range slices.Clone(r.tickets) {
		sub := r.subs[ticket]
		sub.Channels = slices.DeleteFunc(sub.Channels, func(ch Channel) bool {
			if ch.Type != channelType {
				return false
			}
			return len(codes) == 0
		})
		if len(codes) > 0 {
			for i := range sub.Channels {
				if sub.Channels[i].Type != channelType {
					continue
				}
				sub.Channels[i].Codes = slices.DeleteFunc(sub.Channels[i].Codes, func(c string) bool {
					return slices.Contains(codes, c)
				})
			}
			sub.Channels = slices.DeleteFunc(sub.Channels, func(ch Channel) bool {
				return ch.Type == channelType && len(ch.Codes) == 0 && channelType != ChannelMyAsset
			})
		}
		if len(sub.Channels) == 0 {
			delete(r.subs, ticket)
			r.tickets = slices.DeleteFunc(r.tickets, func(t string) bool { return t == ticket })
		}
	}
}

// Contains reports whether the given channel type is registered, and when
// code is non-empty, whether that code is part of its code set. Channels
// registered without codes match every code.
func (r *Registry) Contains(channelType, code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs {
		for _, ch := range sub.Channels {
			if ch.Type != channelType {
				continue
			}
			if code == "" || len(ch.Codes) == 0 || slices.Contains(ch.Codes, code) {
				return true
			}
		}
	}
	return false
}

// Len returns the number of registered tickets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// HasPrivate reports whether any registered channel requires authentication.
func (r *Registry) HasPrivate() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs {
		for _, ch := range sub.Channels {
			if IsPrivateChannel(ch.Type) {
				return true
			}
		}
	}
	return false
}

// Snapshot returns a deep copy of the registered subscriptions in
// registration order.
func (r *Registry) Snapshot() []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Subscription, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		sub := r.subs[ticket]
		cp := Subscription{Ticket: sub.Ticket, Format: sub.Format}
		for _, ch := range sub.Channels {
			ch.Codes = slices.Clone(ch.Codes)
			cp.Channels = append(cp.Channels, ch)
		}
		out = append(out, cp)
	}
	return out
}

// HasPrivateChannel reports whether the subscription includes a channel that
// requires authentication.
func (s Subscription) HasPrivateChannel() bool {
	for _, ch := range s.Channels {
		if IsPrivateChannel(ch.Type) {
			return true
		}
	}
	return false
}

// Frames encodes every registered subscription into wire frames, one per
// ticket: a ticket block, one block per channel, and a trailing format block.
// Frames containing a private channel carry the auth token in their ticket
// block; authToken may be empty when only public channels are registered.
func (r *Registry) Frames(authToken string) ([][]byte, error) {
	frames := make([][]byte, 0, r.Len())
	for _, sub := range r.Snapshot() {
		frame, err := sub.Frame(authToken)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Frame encodes one subscription into its wire form.
func (s Subscription) Frame(authToken string) ([]byte, error) {
	blocks := make([]any, 0, len(s.Channels)+2)
	ticket := map[string]string{"ticket": s.Ticket}
	if authToken != "" && s.HasPrivateChannel() {
		ticket["auth"] = authToken
	}
	blocks = append(blocks, ticket)
	for _, ch := range s.Channels {
		blocks = append(blocks, ch)
	}
	format := s.Format
	if format == "" {
		format = FormatDefault
	}
	blocks = append(blocks, map[string]string{"format": format})
	return sonic.Marshal(blocks)
}
