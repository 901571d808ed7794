package upbit

import (
	"context"

	"upbit/pkg/core"
)

// TransferListOptions filter a withdrawal or deposit listing. Zero values
// are omitted and the exchange applies its defaults.
type TransferListOptions struct {
	// Currency restricts results to one currency code.
	Currency string
	// State restricts results to one transfer state.
	State string
	// UUIDs restricts results to specific transfer ids.
	UUIDs []string
	// TxIDs restricts results to specific on-chain transaction ids.
	TxIDs []string
	// Limit is the page size, capped at 100 by the exchange.
	Limit int
	// Page selects the result page, starting at 1.
	Page int
	// OrderBy is "asc" or "desc".
	OrderBy string
}

func (o TransferListOptions) params() core.Params {
	params := core.NewParams()
	if o.Currency != "" {
		params.Set("currency", o.Currency)
	}
	if o.State != "" {
		params.Set("state", o.State)
	}
	params.SetList("uuids[]", o.UUIDs)
	params.SetList("txids[]", o.TxIDs)
	if o.Limit > 0 {
		params.Set("limit", o.Limit)
	}
	if o.Page > 0 {
		params.Set("page", o.Page)
	}
	if o.OrderBy != "" {
		params.Set("order_by", o.OrderBy)
	}
	return params
}

// transferLookup builds the uuid/txid/currency parameter set shared by
// single withdrawal and deposit lookups.
func transferLookup(uuid, txid, currency string) (core.Params, error) {
	if uuid == "" && txid == "" && currency == "" {
		return nil, core.NewClientError(core.ErrorTypeValidation, "uuid, txid, or currency is required")
	}
	params := core.NewParams()
	if uuid != "" {
		params.Set("uuid", uuid)
	}
	if txid != "" {
		params.Set("txid", txid)
	}
	if currency != "" {
		params.Set("currency", currency)
	}
	return params, nil
}

// GetWithdrawals lists the account's withdrawals with optional filters.
func (c *Client) GetWithdrawals(ctx context.Context, opts TransferListOptions) ([]core.Withdrawal, error) {
	var withdrawals []core.Withdrawal
	if err := c.invoker.Call(ctx, "GET", "/v1/withdraws", opts.params(), nil, true, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// GetWithdrawal fetches a single withdrawal by uuid, txid, or currency.
func (c *Client) GetWithdrawal(ctx context.Context, uuid, txid, currency string) (*core.Withdrawal, error) {
	params, err := transferLookup(uuid, txid, currency)
	if err != nil {
		return nil, err
	}

	var withdrawal core.Withdrawal
	if err := c.invoker.Call(ctx, "GET", "/v1/withdraw", params, nil, true, &withdrawal); err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// GetWithdrawalChance returns the current withdrawal constraints for a
// currency: fee, wallet state, backing balance, and remaining daily limit.
func (c *Client) GetWithdrawalChance(ctx context.Context, currency string) (*core.WithdrawalChance, error) {
	params := core.NewParams().Set("currency", currency)

	var chance core.WithdrawalChance
	if err := c.invoker.Call(ctx, "GET", "/v1/withdraws/chance", params, nil, true, &chance); err != nil {
		return nil, err
	}
	return &chance, nil
}

// WithdrawRequest describes a digital asset withdrawal.
type WithdrawRequest struct {
	// Currency is the currency code to withdraw.
	Currency string `json:"currency" validate:"required"`
	// Amount is the quantity to withdraw.
	Amount core.Decimal `json:"amount"`
	// Address is the destination address.
	Address string `json:"address" validate:"required"`
	// SecondaryAddress is the memo or tag, for networks that need one.
	SecondaryAddress string `json:"secondary_address,omitempty"`
	// NetType is the transfer network.
	NetType string `json:"net_type,omitempty"`
	// TransactionType is "default" or "internal" (exchange-internal transfer).
	TransactionType string `json:"transaction_type,omitempty"`
}

// Withdraw requests a digital asset withdrawal to an external address.
func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest) (*core.Withdrawal, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.TransactionType == "" {
		req.TransactionType = "default"
	}

	var withdrawal core.Withdrawal
	if err := c.invoker.Call(ctx, "POST", "/v1/withdraws/coin", nil, req, true, &withdrawal); err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// WithdrawKRW requests a fiat withdrawal to the account's linked bank.
func (c *Client) WithdrawKRW(ctx context.Context, amount core.Decimal) (*core.Withdrawal, error) {
	body := map[string]string{"amount": amount.String()}

	var withdrawal core.Withdrawal
	if err := c.invoker.Call(ctx, "POST", "/v1/withdraws/krw", nil, body, true, &withdrawal); err != nil {
		return nil, err
	}
	return &withdrawal, nil
}
