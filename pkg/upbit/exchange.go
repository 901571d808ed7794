package upbit

import (
	"context"
	"fmt"

	"upbit/pkg/core"
)

// GetAccounts returns the balance of every currency the account holds.
func (c *Client) GetAccounts(ctx context.Context) ([]core.Asset, error) {
	var assets []core.Asset
	if err := c.invoker.Call(ctx, "GET", "/v1/accounts", nil, nil, true, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetAPIKeys lists the account's issued API keys and their expiry dates.
func (c *Client) GetAPIKeys(ctx context.Context) ([]core.APIKeyInfo, error) {
	var keys []core.APIKeyInfo
	if err := c.invoker.Call(ctx, "GET", "/v1/api_keys", nil, nil, true, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// OrderRequest describes a new order. Limit orders need both price and
// volume; a market buy needs only price (total spend), a market sell only
// volume.
type OrderRequest struct {
	// Market is the market code (e.g., "KRW-BTC").
	Market string `json:"market" validate:"required"`
	// Side is the order direction.
	Side core.OrderSide `json:"side"`
	// OrdType is the execution mode.
	OrdType core.OrderType `json:"ord_type"`
	// Price is the limit price or, for a market buy, the total spend.
	Price *core.Decimal `json:"price,omitempty"`
	// Volume is the order quantity, absent for market buys.
	Volume *core.Decimal `json:"volume,omitempty"`
	// Identifier is an optional caller-chosen id for later lookup.
	Identifier string `json:"identifier,omitempty"`
}

func (r OrderRequest) validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	switch r.OrdType {
	case core.TypeLimit:
		if r.Price == nil || r.Volume == nil {
			return core.NewClientError(core.ErrorTypeValidation, "limit order requires price and volume")
		}
	case core.TypePrice:
		if r.Price == nil {
			return core.NewClientError(core.ErrorTypeValidation, "market buy requires price")
		}
	case core.TypeMarket:
		if r.Volume == nil {
			return core.NewClientError(core.ErrorTypeValidation, "market sell requires volume")
		}
	}
	if r.OrdType == core.TypeLimit && r.Price != nil && !ValidTick(r.Market, *r.Price) {
		return core.NewClientError(core.ErrorTypeValidation,
			fmt.Sprintf("price %s does not match the tick size for %s", r.Price, r.Market))
	}
	return nil
}

// PlaceOrder submits a new order and returns its created state.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*core.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var order core.Order
	if err := c.invoker.Call(ctx, "POST", "/v1/orders", nil, req, true, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// BuyLimit places a limit buy order.
func (c *Client) BuyLimit(ctx context.Context, market string, price, volume core.Decimal) (*core.Order, error) {
	return c.PlaceOrder(ctx, OrderRequest{
		Market:  market,
		Side:    core.SideBid,
		OrdType: core.TypeLimit,
		Price:   &price,
		Volume:  &volume,
	})
}

// SellLimit places a limit sell order.
func (c *Client) SellLimit(ctx context.Context, market string, price, volume core.Decimal) (*core.Order, error) {
	return c.PlaceOrder(ctx, OrderRequest{
		Market:  market,
		Side:    core.SideAsk,
		OrdType: core.TypeLimit,
		Price:   &price,
		Volume:  &volume,
	})
}

// BuyMarket places a market buy for the given total spend.
func (c *Client) BuyMarket(ctx context.Context, market string, price core.Decimal) (*core.Order, error) {
	return c.PlaceOrder(ctx, OrderRequest{
		Market:  market,
		Side:    core.SideBid,
		OrdType: core.TypePrice,
		Price:   &price,
	})
}

// SellMarket places a market sell for the given volume.
func (c *Client) SellMarket(ctx context.Context, market string, volume core.Decimal) (*core.Order, error) {
	return c.PlaceOrder(ctx, OrderRequest{
		Market:  market,
		Side:    core.SideAsk,
		OrdType: core.TypeMarket,
		Volume:  &volume,
	})
}

// orderLookup builds the uuid/identifier parameter pair shared by single
// order lookup and cancellation.
func orderLookup(uuid, identifier string) (core.Params, error) {
	if uuid == "" && identifier == "" {
		return nil, core.NewClientError(core.ErrorTypeValidation, "either uuid or identifier is required")
	}
	if uuid != "" && identifier != "" {
		return nil, core.NewClientError(core.ErrorTypeValidation, "uuid and identifier are mutually exclusive")
	}
	params := core.NewParams()
	if uuid != "" {
		params.Set("uuid", uuid)
	}
	if identifier != "" {
		params.Set("identifier", identifier)
	}
	return params, nil
}

// GetOrder fetches a single order by its exchange uuid or the caller's
// identifier. Exactly one of the two must be given.
func (c *Client) GetOrder(ctx context.Context, uuid, identifier string) (*core.Order, error) {
	params, err := orderLookup(uuid, identifier)
	if err != nil {
		return nil, err
	}

	var order core.Order
	if err := c.invoker.Call(ctx, "GET", "/v1/order", params, nil, true, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderListOptions filter an order listing. Zero values are omitted.
type OrderListOptions struct {
	// Market restricts results to one market code.
	Market string
	// State restricts results to one lifecycle state.
	State string
	// States restricts results to several lifecycle states.
	States []string
}

// GetOrders lists the account's orders with optional filters.
func (c *Client) GetOrders(ctx context.Context, opts OrderListOptions) ([]core.Order, error) {
	params := core.NewParams()
	if opts.Market != "" {
		params.Set("market", opts.Market)
	}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	params.SetList("states[]", opts.States)

	var orders []core.Order
	if err := c.invoker.Call(ctx, "GET", "/v1/orders", params, nil, true, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelOrder cancels an order by uuid or identifier and returns its state
// at cancellation.
func (c *Client) CancelOrder(ctx context.Context, uuid, identifier string) (*core.Order, error) {
	params, err := orderLookup(uuid, identifier)
	if err != nil {
		return nil, err
	}

	var order core.Order
	if err := c.invoker.Call(ctx, "DELETE", "/v1/order", params, nil, true, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
