package aptos

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"facepay/internal/ledger"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/tracer"
	"facepay/pkg/platform/upstream"
)

const pendingTransaction = "pending_transaction"

type accountInfo struct {
	SequenceNumber    string `json:"sequence_number"`
	AuthenticationKey string `json:"authentication_key"`
}

type gasEstimate struct {
	GasEstimate uint64 `json:"gas_estimate"`
}

type entryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

type rawTransaction struct {
	Sender                  string               `json:"sender"`
	SequenceNumber          string               `json:"sequence_number"`
	MaxGasAmount            string               `json:"max_gas_amount"`
	GasUnitPrice            string               `json:"gas_unit_price"`
	ExpirationTimestampSecs string               `json:"expiration_timestamp_secs"`
	Payload                 entryFunctionPayload `json:"payload"`
}

type transactionSignature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type signedTransaction struct {
	rawTransaction
	Signature transactionSignature `json:"signature"`
}

type transactionResponse struct {
	Type      string `json:"type"`
	Hash      string `json:"hash"`
	Sender    string `json:"sender"`
	Success   bool   `json:"success"`
	VMStatus  string `json:"vm_status"`
	GasUsed   string `json:"gas_used"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Payload   struct {
		Function  string `json:"function"`
		Arguments []any  `json:"arguments"`
	} `json:"payload"`
}

// Transfer moves amount from the account controlled by cred to the address.
func (c *Client) Transfer(ctx context.Context, cred ledger.Credential, to string, amount ledger.Amount) (*ledger.TxResult, error) {
	sender, err := ledger.AccountFromCredential(cred)
	if err != nil {
		return nil, err
	}
	return c.submit(ctx, "transfer", sender, transferFunction, to, amount)
}

// MintReward mints reward tokens to the address, signed by the admin account.
func (c *Client) MintReward(ctx context.Context, to string, amount ledger.Amount) (*ledger.TxResult, error) {
	if c.cfg.PackageAddress == "" {
		return nil, dErrors.New(dErrors.CodeLedger, "reward contract address not configured")
	}
	if c.admin == nil {
		return nil, dErrors.New(dErrors.CodeLedger, "admin credential not configured")
	}
	function := fmt.Sprintf("%s::%s::%s", c.cfg.PackageAddress, rewardModule, rewardFunction)
	return c.submit(ctx, "mint", c.admin, function, to, amount)
}

// GetTransaction looks a committed or pending transaction up by hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*ledger.TransactionRecord, error) {
	var resp transactionResponse
	err := c.getJSON(ctx, "get_transaction", "/transactions/by_hash/"+url.PathEscape(hash), &resp)
	if err != nil {
		if upstream.CategoryOf(err) == upstream.NotFound {
			return nil, upstream.AsDomain(err, dErrors.CodeNotFound, "transaction not found")
		}
		return nil, ledgerError(err, "transaction lookup failed")
	}
	return toRecord(&resp), nil
}

func (c *Client) submit(ctx context.Context, op string, signer *ledger.Account, function, to string, amount ledger.Amount) (result *ledger.TxResult, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLedgerSubmit,
		tracer.String("ledger.operation", op),
		tracer.String("ledger.function", function),
	)
	defer func() {
		if result != nil {
			span.SetAttributes(tracer.String(tracer.AttrTxHash, result.Hash))
		}
		span.End(err)
	}()

	raw, err := c.buildTransaction(ctx, signer.Address, function, []any{to, strconv.FormatUint(amount.Units(), 10)})
	if err != nil {
		return nil, err
	}

	var signingMessage string
	if err := c.postJSON(ctx, op+"_encode", "/transactions/encode_submission", raw, &signingMessage); err != nil {
		return nil, ledgerError(err, op+" failed: encode")
	}
	message, err := hex.DecodeString(strings.TrimPrefix(signingMessage, "0x"))
	if err != nil {
		return nil, ledgerError(upstream.New(upstream.BadData, serviceName, "signing message is not hex", err), op+" failed: encode")
	}

	signed := signedTransaction{
		rawTransaction: *raw,
		Signature: transactionSignature{
			Type:      "ed25519_signature",
			PublicKey: signer.PublicKeyHex(),
			Signature: "0x" + hex.EncodeToString(signer.Sign(message)),
		},
	}
	var pending transactionResponse
	if err := c.postJSON(ctx, op+"_submit", "/transactions", signed, &pending); err != nil {
		return nil, ledgerError(err, op+" failed: submit")
	}
	if pending.Hash == "" {
		return nil, ledgerError(upstream.New(upstream.BadData, serviceName, "submission returned no hash", nil), op+" failed: submit")
	}

	// The node holds the signed transaction now. Learning its result must
	// survive the caller going away.
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ConfirmTimeout)
	defer cancel()
	committed, err := c.waitForTransaction(waitCtx, op, pending.Hash)
	if err != nil {
		return nil, &ledger.UnconfirmedError{Hash: pending.Hash, Err: err}
	}
	res := toResult(committed)
	if !res.Success {
		return res, dErrors.New(dErrors.CodeLedger, fmt.Sprintf("%s rejected: %s", op, res.VMStatus))
	}
	return res, nil
}

func (c *Client) buildTransaction(ctx context.Context, sender, function string, args []any) (*rawTransaction, error) {
	var acct accountInfo
	if err := c.getJSON(ctx, "account", "/accounts/"+url.PathEscape(sender), &acct); err != nil {
		if upstream.CategoryOf(err) == upstream.NotFound {
			return nil, upstream.AsDomain(err, dErrors.CodeLedger, "sender account does not exist on ledger")
		}
		return nil, ledgerError(err, "failed to read sender account")
	}
	var gas gasEstimate
	if err := c.getJSON(ctx, "gas_price", "/estimate_gas_price", &gas); err != nil {
		return nil, ledgerError(err, "failed to estimate gas price")
	}
	if gas.GasEstimate == 0 {
		gas.GasEstimate = 100
	}

	return &rawTransaction{
		Sender:                  sender,
		SequenceNumber:          acct.SequenceNumber,
		MaxGasAmount:            strconv.FormatUint(c.cfg.MaxGasAmount, 10),
		GasUnitPrice:            strconv.FormatUint(gas.GasEstimate, 10),
		ExpirationTimestampSecs: strconv.FormatInt(c.now().Add(c.cfg.ExpirationWindow).Unix(), 10),
		Payload: entryFunctionPayload{
			Type:          "entry_function_payload",
			Function:      function,
			TypeArguments: []string{},
			Arguments:     args,
		},
	}, nil
}

// waitForTransaction blocks until hash leaves the mempool. wait_by_hash
// returns early with a pending transaction on a long commit, so it falls back
// to polling by hash until ctx expires.
func (c *Client) waitForTransaction(ctx context.Context, op, hash string) (*transactionResponse, error) {
	var txn transactionResponse
	path := "/transactions/wait_by_hash/" + url.PathEscape(hash)
	if err := c.getJSON(ctx, op+"_wait", path, &txn); err != nil && upstream.CategoryOf(err) != upstream.NotFound {
		return nil, ledgerError(err, fmt.Sprintf("%s outcome unknown for %s", op, hash))
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for txn.Type == "" || txn.Type == pendingTransaction {
		select {
		case <-ctx.Done():
			return nil, upstream.AsDomain(
				upstream.FromTransport(ctx, serviceName, ctx.Err()),
				dErrors.CodeLedger,
				fmt.Sprintf("%s outcome unknown for %s", op, hash),
			)
		case <-ticker.C:
		}
		err := c.getJSON(ctx, op+"_poll", "/transactions/by_hash/"+url.PathEscape(hash), &txn)
		if err != nil && upstream.CategoryOf(err) != upstream.NotFound {
			return nil, ledgerError(err, fmt.Sprintf("%s outcome unknown for %s", op, hash))
		}
	}
	return &txn, nil
}

func toResult(t *transactionResponse) *ledger.TxResult {
	gas, _ := strconv.ParseUint(t.GasUsed, 10, 64)
	version, _ := strconv.ParseUint(t.Version, 10, 64)
	return &ledger.TxResult{
		Hash:     t.Hash,
		Success:  t.Success,
		VMStatus: t.VMStatus,
		GasUsed:  gas,
		Version:  version,
	}
}

func toRecord(t *transactionResponse) *ledger.TransactionRecord {
	res := toResult(t)
	rec := &ledger.TransactionRecord{
		Hash:     t.Hash,
		Type:     t.Type,
		Sender:   t.Sender,
		Function: t.Payload.Function,
		Success:  res.Success,
		VMStatus: res.VMStatus,
		GasUsed:  res.GasUsed,
		Version:  res.Version,
	}
	for _, arg := range t.Payload.Arguments {
		rec.Arguments = append(rec.Arguments, fmt.Sprint(arg))
	}
	// Timestamps are microseconds since the epoch.
	if micros, err := strconv.ParseInt(t.Timestamp, 10, 64); err == nil && micros > 0 {
		rec.Timestamp = time.UnixMicro(micros).UTC()
	}
	return rec
}
