package core

import (
	"strconv"
	"time"
)

// OrderSide represents the direction of an order (bid or ask).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBid indicates an order to purchase an asset.
	SideBid OrderSide = iota
	// SideAsk indicates an order to sell an asset.
	SideAsk
)

// String returns the wire representation of the order side ("bid" or "ask").
func (s OrderSide) String() string {
	return [...]string{"bid", "ask"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both lowercase and uppercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"bid"`, `"BID"`:
		*s = SideBid
	case `"ask"`, `"ASK"`:
		*s = SideAsk
	}
	return nil
}

// OrderType represents how an order is executed.
type OrderType int

// Order type constants define the execution mode of an order.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = iota
	// TypePrice is a market buy specified by total spend amount.
	TypePrice
	// TypeMarket is a market sell specified by volume.
	TypeMarket
)

// String returns the wire representation of the order type.
func (t OrderType) String() string {
	return [...]string{"limit", "price", "market"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"limit"`:
		*t = TypeLimit
	case `"price"`:
		*t = TypePrice
	case `"market"`:
		*t = TypeMarket
	}
	return nil
}

// OrderState represents the lifecycle state of an order.
type OrderState int

// Order state constants define the lifecycle of an order.
const (
	// StateWait indicates the order is open and waiting to be filled.
	StateWait OrderState = iota
	// StateWatch indicates a reserved order waiting for its trigger.
	StateWatch
	// StateDone indicates the order has been completely filled.
	StateDone
	// StateCancel indicates the order has been canceled.
	StateCancel
)

// String returns the wire representation of the order state.
func (s OrderState) String() string {
	return [...]string{"wait", "watch", "done", "cancel"}[s]
}

// IsTerminal returns true if the order can no longer change.
func (s OrderState) IsTerminal() bool {
	return s == StateDone || s == StateCancel
}

// MarshalJSON implements json.Marshaler for OrderState.
func (s OrderState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderState.
func (s *OrderState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"wait"`:
		*s = StateWait
	case `"watch"`:
		*s = StateWatch
	case `"done"`:
		*s = StateDone
	case `"cancel"`:
		*s = StateCancel
	}
	return nil
}

// ChangeType represents the direction of a price change versus the previous close.
type ChangeType int

// Change type constants.
const (
	// ChangeEven indicates no change versus the previous closing price.
	ChangeEven ChangeType = iota
	// ChangeRise indicates the price rose.
	ChangeRise
	// ChangeFall indicates the price fell.
	ChangeFall
)

// String returns the wire representation of the change type.
func (c ChangeType) String() string {
	return [...]string{"EVEN", "RISE", "FALL"}[c]
}

// MarshalJSON implements json.Marshaler for ChangeType.
func (c ChangeType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for ChangeType.
func (c *ChangeType) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"EVEN"`:
		*c = ChangeEven
	case `"RISE"`:
		*c = ChangeRise
	case `"FALL"`:
		*c = ChangeFall
	}
	return nil
}

// UnixTime wraps time.Time for fields the exchange sends as Unix
// millisecond timestamps.
type UnixTime struct {
	time.Time
}

// MarshalJSON implements json.Marshaler, emitting milliseconds.
func (t UnixTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler for millisecond timestamps.
func (t *UnixTime) UnmarshalJSON(data []byte) error {
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(ms)
	return nil
}

// Market describes a tradable market pair.
type Market struct {
	// Market is the market code (e.g., "KRW-BTC").
	Market string `json:"market"`
	// KoreanName is the localized display name of the pair.
	KoreanName string `json:"korean_name"`
	// EnglishName is the English display name of the pair.
	EnglishName string `json:"english_name"`
	// MarketWarning is "CAUTION" when the exchange flags the market, otherwise "NONE".
	MarketWarning string `json:"market_warning,omitempty"`
}

// Ticker represents a market snapshot with current price, change, and volume statistics.
type Ticker struct {
	// Market is the market code (e.g., "KRW-BTC").
	Market string `json:"market"`
	// TradeDate is the date of the most recent trade in UTC (YYYYMMDD).
	TradeDate string `json:"trade_date"`
	// TradeTime is the time of the most recent trade in UTC (HHMMSS).
	TradeTime string `json:"trade_time"`
	// TradeTimestamp is when the most recent trade executed.
	TradeTimestamp UnixTime `json:"trade_timestamp"`
	// OpeningPrice is the first trade price of the day.
	OpeningPrice Decimal `json:"opening_price"`
	// HighPrice is the highest trade price of the day.
	HighPrice Decimal `json:"high_price"`
	// LowPrice is the lowest trade price of the day.
	LowPrice Decimal `json:"low_price"`
	// TradePrice is the most recent trade price.
	TradePrice Decimal `json:"trade_price"`
	// PrevClosingPrice is the previous day's closing price.
	PrevClosingPrice Decimal `json:"prev_closing_price"`
	// Change indicates the direction versus the previous close.
	Change ChangeType `json:"change"`
	// ChangePrice is the absolute price change versus the previous close.
	ChangePrice Decimal `json:"change_price"`
	// ChangeRate is the relative price change versus the previous close.
	ChangeRate Decimal `json:"change_rate"`
	// SignedChangePrice is the signed absolute price change.
	SignedChangePrice Decimal `json:"signed_change_price"`
	// SignedChangeRate is the signed relative price change.
	SignedChangeRate Decimal `json:"signed_change_rate"`
	// TradeVolume is the volume of the most recent trade.
	TradeVolume Decimal `json:"trade_volume"`
	// AccTradePrice is the accumulated traded value since UTC midnight.
	AccTradePrice Decimal `json:"acc_trade_price"`
	// AccTradePrice24h is the accumulated traded value over 24 hours.
	AccTradePrice24h Decimal `json:"acc_trade_price_24h"`
	// AccTradeVolume is the accumulated traded volume since UTC midnight.
	AccTradeVolume Decimal `json:"acc_trade_volume"`
	// AccTradeVolume24h is the accumulated traded volume over 24 hours.
	AccTradeVolume24h Decimal `json:"acc_trade_volume_24h"`
	// Highest52WeekPrice is the 52-week high.
	Highest52WeekPrice Decimal `json:"highest_52_week_price"`
	// Lowest52WeekPrice is the 52-week low.
	Lowest52WeekPrice Decimal `json:"lowest_52_week_price"`
	// Timestamp is when this snapshot was generated.
	Timestamp UnixTime `json:"timestamp"`
}

// Candle represents one OHLCV data point. Minute, day, week, and month
// candles share this shape; interval-specific fields are zero when absent.
type Candle struct {
	// Market is the market code for this candle.
	Market string `json:"market"`
	// CandleDateTimeUTC is the opening time of the candle in UTC.
	CandleDateTimeUTC string `json:"candle_date_time_utc"`
	// CandleDateTimeKST is the opening time of the candle in KST.
	CandleDateTimeKST string `json:"candle_date_time_kst"`
	// OpeningPrice is the price at the start of the period.
	OpeningPrice Decimal `json:"opening_price"`
	// HighPrice is the highest price during the period.
	HighPrice Decimal `json:"high_price"`
	// LowPrice is the lowest price during the period.
	LowPrice Decimal `json:"low_price"`
	// TradePrice is the price at the end of the period.
	TradePrice Decimal `json:"trade_price"`
	// Timestamp is when the last tick inside the candle arrived.
	Timestamp UnixTime `json:"timestamp"`
	// CandleAccTradePrice is the accumulated traded value during the period.
	CandleAccTradePrice Decimal `json:"candle_acc_trade_price"`
	// CandleAccTradeVolume is the accumulated traded volume during the period.
	CandleAccTradeVolume Decimal `json:"candle_acc_trade_volume"`
	// Unit is the minute interval for minute candles (1, 3, 5, ...).
	Unit int `json:"unit,omitempty"`
	// PrevClosingPrice is the previous closing price (day candles only).
	PrevClosingPrice Decimal `json:"prev_closing_price,omitempty"`
	// FirstDayOfPeriod is the first day of the period (week and month candles).
	FirstDayOfPeriod string `json:"first_day_of_period,omitempty"`
}

// OrderbookUnit is a single price level with ask and bid sides.
type OrderbookUnit struct {
	// AskPrice is the sell-side quote at this level.
	AskPrice Decimal `json:"ask_price"`
	// BidPrice is the buy-side quote at this level.
	BidPrice Decimal `json:"bid_price"`
	// AskSize is the quantity available at the ask price.
	AskSize Decimal `json:"ask_size"`
	// BidSize is the quantity available at the bid price.
	BidSize Decimal `json:"bid_size"`
}

// Orderbook represents the current depth snapshot for a market.
type Orderbook struct {
	// Market is the market code for this orderbook.
	Market string `json:"market"`
	// Timestamp is when the snapshot was taken.
	Timestamp UnixTime `json:"timestamp"`
	// TotalAskSize is the combined sell-side quantity across levels.
	TotalAskSize Decimal `json:"total_ask_size"`
	// TotalBidSize is the combined buy-side quantity across levels.
	TotalBidSize Decimal `json:"total_bid_size"`
	// OrderbookUnits are the depth levels, best quotes first.
	OrderbookUnits []OrderbookUnit `json:"orderbook_units"`
}

// TradeTick represents a single executed trade from the public feed.
type TradeTick struct {
	// Market is the market code for this trade.
	Market string `json:"market"`
	// TradeDateUTC is the trade date in UTC (YYYY-MM-DD).
	TradeDateUTC string `json:"trade_date_utc"`
	// TradeTimeUTC is the trade time in UTC (HH:MM:SS).
	TradeTimeUTC string `json:"trade_time_utc"`
	// Timestamp is when the trade executed.
	Timestamp UnixTime `json:"timestamp"`
	// TradePrice is the execution price.
	TradePrice Decimal `json:"trade_price"`
	// TradeVolume is the executed quantity.
	TradeVolume Decimal `json:"trade_volume"`
	// PrevClosingPrice is the previous day's closing price.
	PrevClosingPrice Decimal `json:"prev_closing_price"`
	// ChangePrice is the price change versus the previous close.
	ChangePrice Decimal `json:"change_price"`
	// AskBid is "ASK" for a sell-initiated trade, "BID" for buy-initiated.
	AskBid string `json:"ask_bid"`
	// SequentialID is a monotonically increasing trade identifier.
	SequentialID int64 `json:"sequential_id"`
}

// Asset represents the account balance for a single currency.
type Asset struct {
	// Currency is the currency code (e.g., "KRW", "BTC").
	Currency string `json:"currency"`
	// Balance is the amount available for trading.
	Balance Decimal `json:"balance"`
	// Locked is the amount locked in open orders.
	Locked Decimal `json:"locked"`
	// AvgBuyPrice is the average acquisition price.
	AvgBuyPrice Decimal `json:"avg_buy_price"`
	// AvgBuyPriceModified reports whether the average price was adjusted manually.
	AvgBuyPriceModified bool `json:"avg_buy_price_modified"`
	// UnitCurrency is the quote currency of the average price (e.g., "KRW").
	UnitCurrency string `json:"unit_currency"`
}

// Order represents an exchange order with its full state.
type Order struct {
	// UUID is the exchange-assigned order identifier.
	UUID string `json:"uuid"`
	// Side indicates whether this is a bid or an ask.
	Side OrderSide `json:"side"`
	// OrdType defines how the order executes (limit, price, market).
	OrdType OrderType `json:"ord_type"`
	// Price is the limit price, absent for market orders.
	Price Decimal `json:"price"`
	// State is the current lifecycle state of the order.
	State OrderState `json:"state"`
	// Market is the market code for this order.
	Market string `json:"market"`
	// CreatedAt is when the order was submitted.
	CreatedAt time.Time `json:"created_at"`
	// Volume is the total order volume, absent for price orders.
	Volume Decimal `json:"volume"`
	// RemainingVolume is the unfilled portion of the order.
	RemainingVolume Decimal `json:"remaining_volume"`
	// ReservedFee is the fee reserved for this order.
	ReservedFee Decimal `json:"reserved_fee"`
	// RemainingFee is the fee not yet consumed.
	RemainingFee Decimal `json:"remaining_fee"`
	// PaidFee is the fee already charged.
	PaidFee Decimal `json:"paid_fee"`
	// Locked is the balance locked by this order.
	Locked Decimal `json:"locked"`
	// ExecutedVolume is the filled portion of the order.
	ExecutedVolume Decimal `json:"executed_volume"`
	// TradesCount is the number of fills so far.
	TradesCount int `json:"trades_count"`
}

// APIKeyInfo describes an issued API key and its expiry.
type APIKeyInfo struct {
	// AccessKey is the public key identifier.
	AccessKey string `json:"access_key"`
	// ExpireAt is when the key stops working.
	ExpireAt time.Time `json:"expire_at"`
}

// Withdrawal represents a single withdrawal record.
type Withdrawal struct {
	// Type is the withdrawal type reported by the exchange.
	Type string `json:"type"`
	// UUID is the withdrawal identifier.
	UUID string `json:"uuid"`
	// Currency is the withdrawn currency code.
	Currency string `json:"currency"`
	// NetType is the network used for the transfer.
	NetType string `json:"net_type"`
	// TxID is the on-chain transaction id, when available.
	TxID string `json:"txid,omitempty"`
	// State is the withdrawal state (e.g., "WAITING", "DONE", "CANCELED").
	State string `json:"state"`
	// CreatedAt is when the withdrawal was requested.
	CreatedAt time.Time `json:"created_at"`
	// DoneAt is when the withdrawal completed, when it has.
	DoneAt *time.Time `json:"done_at,omitempty"`
	// Amount is the withdrawn amount.
	Amount Decimal `json:"amount"`
	// Fee is the withdrawal fee.
	Fee Decimal `json:"fee"`
	// TransactionType distinguishes default and internal transfers.
	TransactionType string `json:"transaction_type"`
}

// Deposit represents a single deposit record.
type Deposit struct {
	// Type is the deposit type reported by the exchange.
	Type string `json:"type"`
	// UUID is the deposit identifier.
	UUID string `json:"uuid"`
	// Currency is the deposited currency code.
	Currency string `json:"currency"`
	// NetType is the network used for the transfer.
	NetType string `json:"net_type"`
	// TxID is the on-chain transaction id, when available.
	TxID string `json:"txid,omitempty"`
	// State is the deposit state (e.g., "PROCESSING", "ACCEPTED").
	State string `json:"state"`
	// CreatedAt is when the deposit was detected.
	CreatedAt time.Time `json:"created_at"`
	// DoneAt is when the deposit completed, when it has.
	DoneAt *time.Time `json:"done_at,omitempty"`
	// Amount is the deposited amount.
	Amount Decimal `json:"amount"`
	// Fee is the deposit fee.
	Fee Decimal `json:"fee"`
	// TransactionType distinguishes default and internal transfers.
	TransactionType string `json:"transaction_type"`
}

// DepositAddress is a deposit address assigned to a currency.
type DepositAddress struct {
	// Currency is the currency code the address accepts.
	Currency string `json:"currency"`
	// NetType is the network of the address.
	NetType string `json:"net_type"`
	// DepositAddress is the address itself. Empty while generation is pending.
	DepositAddress string `json:"deposit_address"`
	// SecondaryAddress is the memo or tag, for networks that need one.
	SecondaryAddress string `json:"secondary_address,omitempty"`
}

// WithdrawalCurrency carries the fee and wallet state for a currency.
type WithdrawalCurrency struct {
	Code          string   `json:"code"`
	WithdrawFee   Decimal  `json:"withdraw_fee"`
	IsCoin        bool     `json:"is_coin"`
	WalletState   string   `json:"wallet_state"`
	WalletSupport []string `json:"wallet_support"`
}

// WithdrawalLimit carries the remaining withdrawal limits for the day.
type WithdrawalLimit struct {
	Currency          string  `json:"currency"`
	Minimum           Decimal `json:"minimum"`
	Onetime           Decimal `json:"onetime"`
	Daily             Decimal `json:"daily"`
	RemainingDaily    Decimal `json:"remaining_daily"`
	RemainingDailyKRW Decimal `json:"remaining_daily_krw"`
	Fixed             int     `json:"fixed"`
	CanWithdraw       bool    `json:"can_withdraw"`
}

// WithdrawalChance describes the current withdrawal constraints for a currency.
type WithdrawalChance struct {
	// Currency is the per-currency fee and wallet state.
	Currency WithdrawalCurrency `json:"currency"`
	// Account is the balance backing a withdrawal.
	Account Asset `json:"account"`
	// WithdrawLimit is the remaining limit for the day.
	WithdrawLimit WithdrawalLimit `json:"withdraw_limit"`
}
