package stream

import (
	"upbit/pkg/core"
)

// Stream delivery modes. A snapshot frame carries current state at
// subscribe time; realtime frames follow as events occur.
const (
	StreamSnapshot = "SNAPSHOT"
	StreamRealtime = "REALTIME"
)

// MessageType discriminates decoded stream payloads.
type MessageType string

// Message types delivered by the stream.
const (
	MessageTicker    MessageType = "ticker"
	MessageTrade     MessageType = "trade"
	MessageOrderbook MessageType = "orderbook"
	MessageMyOrder   MessageType = "myOrder"
	MessageMyAsset   MessageType = "myAsset"
	MessageUnknown   MessageType = "unknown"
)

// Message is one decoded stream payload. Exactly one of the typed fields is
// set, matching Type; Raw always holds the original frame.
type Message struct {
	Type      MessageType
	Ticker    *Ticker
	Trade     *Trade
	Orderbook *Orderbook
	MyOrder   *MyOrder
	MyAsset   *MyAsset
	Raw       []byte
}

// Ticker is a real-time market snapshot. The feed names the market "code"
// where the REST API says "market"; everything monetary stays decimal.
type Ticker struct {
	Type               string          `json:"type"`
	Code               string          `json:"code"`
	OpeningPrice       core.Decimal    `json:"opening_price"`
	HighPrice          core.Decimal    `json:"high_price"`
	LowPrice           core.Decimal    `json:"low_price"`
	TradePrice         core.Decimal    `json:"trade_price"`
	PrevClosingPrice   core.Decimal    `json:"prev_closing_price"`
	Change             core.ChangeType `json:"change"`
	ChangePrice        core.Decimal    `json:"change_price"`
	SignedChangePrice  core.Decimal    `json:"signed_change_price"`
	ChangeRate         core.Decimal    `json:"change_rate"`
	SignedChangeRate   core.Decimal    `json:"signed_change_rate"`
	AskBid             string          `json:"ask_bid"`
	TradeVolume        core.Decimal    `json:"trade_volume"`
	AccTradeVolume     core.Decimal    `json:"acc_trade_volume"`
	AccTradeVolume24h  core.Decimal    `json:"acc_trade_volume_24h"`
	AccTradePrice      core.Decimal    `json:"acc_trade_price"`
	AccTradePrice24h   core.Decimal    `json:"acc_trade_price_24h"`
	AccAskVolume       core.Decimal    `json:"acc_ask_volume"`
	AccBidVolume       core.Decimal    `json:"acc_bid_volume"`
	TradeDate          string          `json:"trade_date"`
	TradeTime          string          `json:"trade_time"`
	TradeTimestamp     core.UnixTime   `json:"trade_timestamp"`
	Highest52WeekPrice core.Decimal    `json:"highest_52_week_price"`
	Highest52WeekDate  string          `json:"highest_52_week_date"`
	Lowest52WeekPrice  core.Decimal    `json:"lowest_52_week_price"`
	Lowest52WeekDate   string          `json:"lowest_52_week_date"`
	MarketState        string          `json:"market_state"`
	IsTradingSuspended bool            `json:"is_trading_suspended"`
	DelistingDate      string          `json:"delisting_date,omitempty"`
	MarketWarning      string          `json:"market_warning"`
	Timestamp          core.UnixTime   `json:"timestamp"`
	StreamType         string          `json:"stream_type"`
}

// Trade is one executed trade from the real-time feed.
type Trade struct {
	Type             string          `json:"type"`
	Code             string          `json:"code"`
	Timestamp        core.UnixTime   `json:"timestamp"`
	TradeDate        string          `json:"trade_date"`
	TradeTime        string          `json:"trade_time"`
	TradeTimestamp   core.UnixTime   `json:"trade_timestamp"`
	TradePrice       core.Decimal    `json:"trade_price"`
	TradeVolume      core.Decimal    `json:"trade_volume"`
	AskBid           string          `json:"ask_bid"`
	PrevClosingPrice core.Decimal    `json:"prev_closing_price"`
	Change           core.ChangeType `json:"change"`
	ChangePrice      core.Decimal    `json:"change_price"`
	SequentialID     int64           `json:"sequential_id"`
	BestAskPrice     core.Decimal    `json:"best_ask_price"`
	BestAskSize      core.Decimal    `json:"best_ask_size"`
	BestBidPrice     core.Decimal    `json:"best_bid_price"`
	BestBidSize      core.Decimal    `json:"best_bid_size"`
	StreamType       string          `json:"stream_type"`
}

// Orderbook is a real-time depth snapshot.
type Orderbook struct {
	Type           string               `json:"type"`
	Code           string               `json:"code"`
	Timestamp      core.UnixTime        `json:"timestamp"`
	TotalAskSize   core.Decimal         `json:"total_ask_size"`
	TotalBidSize   core.Decimal         `json:"total_bid_size"`
	OrderbookUnits []core.OrderbookUnit `json:"orderbook_units"`
	Level          int                  `json:"level"`
	StreamType     string               `json:"stream_type"`
}

// MyOrder is a private order event: placement, fill, or cancellation of one
// of the account's orders.
type MyOrder struct {
	Type            string          `json:"type"`
	Code            string          `json:"code"`
	UUID            string          `json:"uuid"`
	AskBid          core.OrderSide  `json:"ask_bid"`
	OrderType       core.OrderType  `json:"order_type"`
	State           string          `json:"state"`
	TradeUUID       string          `json:"trade_uuid,omitempty"`
	Price           core.Decimal    `json:"price"`
	AvgPrice        core.Decimal    `json:"avg_price"`
	Volume          core.Decimal    `json:"volume"`
	RemainingVolume core.Decimal    `json:"remaining_volume"`
	ExecutedVolume  core.Decimal    `json:"executed_volume"`
	TradesCount     int             `json:"trades_count"`
	ReservedFee     core.Decimal    `json:"reserved_fee"`
	RemainingFee    core.Decimal    `json:"remaining_fee"`
	PaidFee         core.Decimal    `json:"paid_fee"`
	Locked          core.Decimal    `json:"locked"`
	ExecutedFunds   core.Decimal    `json:"executed_funds"`
	OrderTimestamp  core.UnixTime   `json:"order_timestamp"`
	Timestamp       core.UnixTime   `json:"timestamp"`
	StreamType      string          `json:"stream_type"`
}

// MyAssetEntry is one currency balance inside a MyAsset event.
type MyAssetEntry struct {
	Currency string       `json:"currency"`
	Balance  core.Decimal `json:"balance"`
	Locked   core.Decimal `json:"locked"`
}

// MyAsset is a private balance event for the account.
type MyAsset struct {
	Type           string         `json:"type"`
	AssetUUID      string         `json:"asset_uuid"`
	Assets         []MyAssetEntry `json:"assets"`
	AssetTimestamp core.UnixTime  `json:"asset_timestamp"`
	Timestamp      core.UnixTime  `json:"timestamp"`
	StreamType     string         `json:"stream_type"`
}

// CodeOf returns the market code the message concerns, empty for
// account-wide events.
func (m Message) CodeOf() string {
	switch m.Type {
	case MessageTicker:
		if m.Ticker != nil {
			return m.Ticker.Code
		}
	case MessageTrade:
		if m.Trade != nil {
			return m.Trade.Code
		}
	case MessageOrderbook:
		if m.Orderbook != nil {
			return m.Orderbook.Code
		}
	case MessageMyOrder:
		if m.MyOrder != nil {
			return m.MyOrder.Code
		}
	}
	return ""
}
