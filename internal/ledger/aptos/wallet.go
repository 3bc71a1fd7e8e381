package aptos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"facepay/internal/ledger"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/upstream"
)

type accountResource struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type coinStoreData struct {
	Coin struct {
		Value string `json:"value"`
	} `json:"coin"`
}

type viewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// Balance returns the native coin and reward token balance of address. An
// address that has never been funded has zero balances.
func (c *Client) Balance(ctx context.Context, address string) (*ledger.Balance, error) {
	bal := &ledger.Balance{Address: address}

	var resources []accountResource
	err := c.getJSON(ctx, "balance", "/accounts/"+url.PathEscape(address)+"/resources", &resources)
	if err != nil {
		if upstream.CategoryOf(err) == upstream.NotFound {
			return bal, nil
		}
		return nil, ledgerError(err, "balance check failed")
	}

	nativeFound := false
	for _, r := range resources {
		switch {
		case r.Type == nativeCoinStore:
			bal.Native = coinValue(r.Data)
			nativeFound = true
		case strings.Contains(r.Type, rewardModule) && strings.Contains(r.Type, rewardTokenName):
			bal.Reward = coinValue(r.Data)
		}
	}

	// Accounts migrated to fungible assets have no CoinStore; the view
	// function still reports the paired balance.
	if !nativeFound {
		native, err := c.viewCoinBalance(ctx, address)
		if err != nil {
			c.logger.WarnContext(ctx, "native balance view failed", "error", err)
		} else {
			bal.Native = native
		}
	}
	return bal, nil
}

func (c *Client) viewCoinBalance(ctx context.Context, address string) (ledger.Amount, error) {
	var out []string
	err := c.postJSON(ctx, "balance_view", "/view", viewRequest{
		Function:      "0x1::coin::balance",
		TypeArguments: []string{nativeCoinType},
		Arguments:     []any{address},
	}, &out)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, upstream.New(upstream.BadData, serviceName, "empty view result", nil)
	}
	units, err := strconv.ParseUint(out[0], 10, 64)
	if err != nil {
		return 0, upstream.New(upstream.BadData, serviceName, "view result is not a number", err)
	}
	return ledger.Amount(units), nil
}

func coinValue(data json.RawMessage) ledger.Amount {
	var store coinStoreData
	if err := json.Unmarshal(data, &store); err != nil {
		return 0
	}
	units, _ := strconv.ParseUint(store.Coin.Value, 10, 64)
	return ledger.Amount(units)
}

// Faucet funds address from the network faucet and returns the funding
// transaction hashes. Mainnet has no faucet.
func (c *Client) Faucet(ctx context.Context, address string, amount ledger.Amount) ([]string, error) {
	if c.cfg.FaucetURL == "" {
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("no faucet for network %q", c.cfg.Network))
	}
	q := url.Values{}
	q.Set("amount", strconv.FormatUint(amount.Units(), 10))
	q.Set("address", address)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.FaucetURL+"/mint?"+q.Encode(), nil)
	if err != nil {
		return nil, upstream.New(upstream.Internal, faucetServiceName, "failed to create request", err)
	}
	var hashes []string
	if err := c.do(ctx, c.faucet, "faucet", req, &hashes); err != nil {
		return nil, ledgerError(err, "faucet funding failed")
	}
	return hashes, nil
}
