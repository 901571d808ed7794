package upbit

import (
	"context"

	"upbit/pkg/core"
)

// GetDeposits lists the account's deposits with optional filters.
func (c *Client) GetDeposits(ctx context.Context, opts TransferListOptions) ([]core.Deposit, error) {
	var deposits []core.Deposit
	if err := c.invoker.Call(ctx, "GET", "/v1/deposits", opts.params(), nil, true, &deposits); err != nil {
		return nil, err
	}
	return deposits, nil
}

// GetDeposit fetches a single deposit by uuid, txid, or currency.
func (c *Client) GetDeposit(ctx context.Context, uuid, txid, currency string) (*core.Deposit, error) {
	params, err := transferLookup(uuid, txid, currency)
	if err != nil {
		return nil, err
	}

	var deposit core.Deposit
	if err := c.invoker.Call(ctx, "GET", "/v1/deposit", params, nil, true, &deposit); err != nil {
		return nil, err
	}
	return &deposit, nil
}

// GenerateDepositAddress asks the exchange to create a deposit address for
// a currency. Address generation is asynchronous on the exchange side; the
// returned address may be empty until generation completes.
func (c *Client) GenerateDepositAddress(ctx context.Context, currency, netType string) (*core.DepositAddress, error) {
	body := map[string]string{"currency": currency}
	if netType != "" {
		body["net_type"] = netType
	}

	var address core.DepositAddress
	if err := c.invoker.Call(ctx, "POST", "/v1/deposits/generate_coin_address", nil, body, true, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// GetDepositAddresses lists every deposit address assigned to the account.
func (c *Client) GetDepositAddresses(ctx context.Context) ([]core.DepositAddress, error) {
	var addresses []core.DepositAddress
	if err := c.invoker.Call(ctx, "GET", "/v1/deposits/coin_addresses", nil, nil, true, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// GetDepositAddress fetches the deposit address for a currency.
func (c *Client) GetDepositAddress(ctx context.Context, currency, netType string) (*core.DepositAddress, error) {
	params := core.NewParams().Set("currency", currency)
	if netType != "" {
		params.Set("net_type", netType)
	}

	var address core.DepositAddress
	if err := c.invoker.Call(ctx, "GET", "/v1/deposits/coin_address", params, nil, true, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// DepositKRW requests a fiat deposit from the account's linked bank.
func (c *Client) DepositKRW(ctx context.Context, amount core.Decimal) (*core.Deposit, error) {
	body := map[string]string{"amount": amount.String()}

	var deposit core.Deposit
	if err := c.invoker.Call(ctx, "POST", "/v1/deposits/krw", nil, body, true, &deposit); err != nil {
		return nil, err
	}
	return &deposit, nil
}
