package upbit

import (
	"context"
	"fmt"
	"time"

	"upbit/pkg/core"
)

// GetMarkets lists every tradable market pair. With details enabled the
// exchange includes the market warning flag.
func (c *Client) GetMarkets(ctx context.Context, details bool) ([]core.Market, error) {
	params := core.NewParams().Set("isDetails", details)

	var markets []core.Market
	if err := c.invoker.Call(ctx, "GET", "/v1/market/all", params, nil, false, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// CandleOptions narrow a candle query. Zero values are omitted from the
// request; the exchange then returns the most recent candles.
type CandleOptions struct {
	// To returns candles before this time.
	To time.Time
	// Count is the number of candles, capped at 200 by the exchange.
	Count int
	// ConvertingPriceUnit converts prices into another quote currency.
	// Day candles only.
	ConvertingPriceUnit string
}

func (o CandleOptions) params(market string) core.Params {
	params := core.NewParams().Set("market", market)
	if !o.To.IsZero() {
		params.Set("to", o.To.UTC())
	}
	if o.Count > 0 {
		params.Set("count", o.Count)
	}
	if o.ConvertingPriceUnit != "" {
		params.Set("convertingPriceUnit", o.ConvertingPriceUnit)
	}
	return params
}

// GetCandlesMinutes returns minute candles for a market. unit must be one of
// the intervals the exchange serves: 1, 3, 5, 10, 15, 30, 60, or 240.
func (c *Client) GetCandlesMinutes(ctx context.Context, market string, unit int, opts CandleOptions) ([]core.Candle, error) {
	switch unit {
	case 1, 3, 5, 10, 15, 30, 60, 240:
	default:
		return nil, core.NewClientError(core.ErrorTypeValidation,
			fmt.Sprintf("unsupported minute candle unit: %d", unit))
	}

	var candles []core.Candle
	path := fmt.Sprintf("/v1/candles/minutes/%d", unit)
	if err := c.invoker.Call(ctx, "GET", path, opts.params(market), nil, false, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// GetCandlesDays returns daily candles for a market.
func (c *Client) GetCandlesDays(ctx context.Context, market string, opts CandleOptions) ([]core.Candle, error) {
	var candles []core.Candle
	if err := c.invoker.Call(ctx, "GET", "/v1/candles/days", opts.params(market), nil, false, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// GetCandlesWeeks returns weekly candles for a market.
func (c *Client) GetCandlesWeeks(ctx context.Context, market string, opts CandleOptions) ([]core.Candle, error) {
	var candles []core.Candle
	if err := c.invoker.Call(ctx, "GET", "/v1/candles/weeks", opts.params(market), nil, false, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// GetCandlesMonths returns monthly candles for a market.
func (c *Client) GetCandlesMonths(ctx context.Context, market string, opts CandleOptions) ([]core.Candle, error) {
	var candles []core.Candle
	if err := c.invoker.Call(ctx, "GET", "/v1/candles/months", opts.params(market), nil, false, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// GetTicker returns current snapshots for one or more markets.
func (c *Client) GetTicker(ctx context.Context, markets ...string) ([]core.Ticker, error) {
	if len(markets) == 0 {
		return nil, core.NewClientError(core.ErrorTypeValidation, "at least one market code is required")
	}
	params := core.NewParams().SetList("markets", markets)

	var tickers []core.Ticker
	if err := c.invoker.Call(ctx, "GET", "/v1/ticker", params, nil, false, &tickers); err != nil {
		return nil, err
	}
	return tickers, nil
}

// GetOrderbook returns depth snapshots for one or more markets.
func (c *Client) GetOrderbook(ctx context.Context, markets ...string) ([]core.Orderbook, error) {
	if len(markets) == 0 {
		return nil, core.NewClientError(core.ErrorTypeValidation, "at least one market code is required")
	}
	params := core.NewParams().SetList("markets", markets)

	var books []core.Orderbook
	if err := c.invoker.Call(ctx, "GET", "/v1/orderbook", params, nil, false, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// TradeOptions narrow a recent-trades query.
type TradeOptions struct {
	// To returns trades before this time of day, formatted HHmmss or HH:mm:ss.
	To string
	// Count is the number of trades, capped at 500 by the exchange.
	Count int
	// Cursor is the pagination cursor from a previous response.
	Cursor string
	// DaysAgo shifts the query up to 7 days into the past.
	DaysAgo int
}

// GetTrades returns the most recent executed trades for a market.
func (c *Client) GetTrades(ctx context.Context, market string, opts TradeOptions) ([]core.TradeTick, error) {
	params := core.NewParams().Set("market", market)
	if opts.To != "" {
		params.Set("to", opts.To)
	}
	if opts.Count > 0 {
		params.Set("count", opts.Count)
	}
	if opts.Cursor != "" {
		params.Set("cursor", opts.Cursor)
	}
	if opts.DaysAgo > 0 {
		params.Set("daysAgo", opts.DaysAgo)
	}

	var trades []core.TradeTick
	if err := c.invoker.Call(ctx, "GET", "/v1/trades/ticks", params, nil, false, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}
