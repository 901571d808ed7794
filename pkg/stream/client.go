// Package stream exposes the exchange's real-time feeds as typed Go
// channels. A Client owns one stream session, keeps it alive across
// disconnects, and replays its subscriptions after every reconnect.
package stream

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"upbit/internal/auth"
	"upbit/internal/ws"
	"upbit/pkg/core"
)

// Client is the typed facade over a stream session. Construct with New,
// register subscriptions, then Connect and range over Messages.
type Client struct {
	session *ws.Session
	logger  zerolog.Logger

	out    chan Message
	stopCh chan struct{}
}

// New creates a stream Client from the shared configuration. signer may be
// nil when only public channels will be used.
func New(cfg *core.Config, signer *auth.Signer) *Client {
	registry := ws.NewRegistry()
	session := ws.NewSession(ws.Config{
		URL:                    cfg.StreamURL,
		PingInterval:           cfg.PingInterval,
		PongWait:               cfg.PongWait,
		SubscribeGrace:         cfg.SubscribeGrace,
		ReconnectBaseWait:      cfg.ReconnectBaseWait,
		ReconnectMaxWait:       cfg.ReconnectMaxWait,
		ReconnectMaxAttempts:   cfg.ReconnectMaxAttempts,
		DecodeFailureThreshold: cfg.DecodeFailureThreshold,
		BufferSize:             cfg.StreamBufferSize,
	}, registry, signer)

	return &Client{
		session: session,
		logger:  zerolog.Nop(),
		out:     make(chan Message, cfg.StreamBufferSize),
		stopCh:  make(chan struct{}),
	}
}

// SetLogger configures the logger for the client and its session.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
	c.session.SetLogger(logger)
}

// Connect opens the stream, announces registered subscriptions, and starts
// delivering decoded messages.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.session.Connect(ctx); err != nil {
		return err
	}
	go c.pump()
	return nil
}

// Close shuts the stream down. Messages stops delivering after Close
// returns.
func (c *Client) Close() error {
	err := c.session.Close()
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	return err
}

// State returns the session's lifecycle state.
func (c *Client) State() ws.ConnState {
	return c.session.State()
}

// Messages returns the channel of decoded stream messages in arrival order.
func (c *Client) Messages() <-chan Message {
	return c.out
}

// Errors returns the channel of terminal session errors, such as an
// exhausted reconnect budget.
func (c *Client) Errors() <-chan error {
	return c.session.Errors()
}

// SubscribeTicker subscribes to real-time price snapshots for the given
// market codes and returns the subscription ticket.
func (c *Client) SubscribeTicker(codes ...string) (string, error) {
	return c.subscribe(ws.ChannelTicker, codes, false)
}

// SubscribeTrade subscribes to executed trades for the given market codes.
func (c *Client) SubscribeTrade(codes ...string) (string, error) {
	return c.subscribe(ws.ChannelTrade, codes, false)
}

// SubscribeOrderbook subscribes to depth snapshots for the given market codes.
func (c *Client) SubscribeOrderbook(codes ...string) (string, error) {
	return c.subscribe(ws.ChannelOrderbook, codes, false)
}

// SubscribeMyOrder subscribes to the account's order events, optionally
// narrowed to specific market codes. Requires credentials.
func (c *Client) SubscribeMyOrder(codes ...string) (string, error) {
	return c.subscribe(ws.ChannelMyOrder, codes, false)
}

// SubscribeMyAsset subscribes to the account's balance events. Requires
// credentials.
func (c *Client) SubscribeMyAsset() (string, error) {
	return c.subscribe(ws.ChannelMyAsset, nil, false)
}

func (c *Client) subscribe(channelType string, codes []string, snapshotOnly bool) (string, error) {
	if len(codes) == 0 && !ws.IsPrivateChannel(channelType) {
		return "", fmt.Errorf("%s subscription needs at least one market code", channelType)
	}
	return c.session.Subscribe("", ws.Channel{
		Type:           channelType,
		Codes:          codes,
		IsOnlySnapshot: snapshotOnly,
	})
}

// Unsubscribe removes codes from a channel type, or the whole channel when
// no codes are given. The server keeps sending until the next reconnect
// replays the reduced set; the client filters those frames locally.
func (c *Client) Unsubscribe(channelType string, codes ...string) {
	c.session.Unsubscribe(channelType, codes)
}

// pump decodes raw session frames into typed messages and forwards them in
// arrival order.
func (c *Client) pump() {
	for {
		select {
		case <-c.stopCh:
			return
		case frame, ok := <-c.session.Messages():
			if !ok {
				close(c.out)
				return
			}
			msg, err := decode(frame)
			if err != nil {
				c.logger.Warn().Err(err).Msg("frame decode failed, skipping")
				continue
			}
			if !c.wanted(msg) {
				continue
			}
			select {
			case c.out <- msg:
			case <-c.stopCh:
				return
			}
		}
	}
}

// wanted filters out frames for subscriptions the caller has since removed.
func (c *Client) wanted(msg Message) bool {
	if msg.Type == MessageUnknown {
		return true
	}
	return c.session.Registry().Contains(string(msg.Type), msg.CodeOf())
}

// decode parses one frame into its typed form based on the discriminator
// field. Frames with an unrecognized type pass through as MessageUnknown
// with the raw payload attached.
func decode(frame []byte) (Message, error) {
	node, err := sonic.Get(frame, "type")
	if err != nil {
		return Message{Type: MessageUnknown, Raw: frame}, nil
	}
	channelType, err := node.String()
	if err != nil {
		return Message{Type: MessageUnknown, Raw: frame}, nil
	}

	msg := Message{Raw: frame}
	switch channelType {
	case string(MessageTicker):
		var t Ticker
		if err := sonic.Unmarshal(frame, &t); err != nil {
			return Message{}, err
		}
		msg.Type, msg.Ticker = MessageTicker, &t
	case string(MessageTrade):
		var t Trade
		if err := sonic.Unmarshal(frame, &t); err != nil {
			return Message{}, err
		}
		msg.Type, msg.Trade = MessageTrade, &t
	case string(MessageOrderbook):
		var o Orderbook
		if err := sonic.Unmarshal(frame, &o); err != nil {
			return Message{}, err
		}
		msg.Type, msg.Orderbook = MessageOrderbook, &o
	case string(MessageMyOrder):
		var o MyOrder
		if err := sonic.Unmarshal(frame, &o); err != nil {
			return Message{}, err
		}
		msg.Type, msg.MyOrder = MessageMyOrder, &o
	case string(MessageMyAsset):
		var a MyAsset
		if err := sonic.Unmarshal(frame, &a); err != nil {
			return Message{}, err
		}
		msg.Type, msg.MyAsset = MessageMyAsset, &a
	default:
		msg.Type = MessageUnknown
	}
	return msg, nil
}
