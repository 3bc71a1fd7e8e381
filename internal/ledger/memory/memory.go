// Package memory is an in-process simulated ledger used in development mode
// and tests. It uses the same key and address scheme as the Aptos client, so
// wallets generated for one work with the other.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"facepay/internal/ledger"
	dErrors "facepay/pkg/domain-errors"
)

const (
	transferFunction = "0x1::aptos_account::transfer"
	mintFunction     = "facepay::reward::mint"
)

// Ledger keeps balances and a transaction log in memory.
type Ledger struct {
	mu       sync.Mutex
	network  string
	native   map[string]ledger.Amount
	reward   map[string]ledger.Amount
	txns     map[string]*ledger.TransactionRecord
	order    []string
	now      func() time.Time
	failures map[string]error
	calls    map[string]int

	rewardsConfigured bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithoutRewards makes MintReward fail as if no reward contract were deployed.
func WithoutRewards() Option {
	return func(l *Ledger) { l.rewardsConfigured = false }
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		network:           "memory",
		native:            map[string]ledger.Amount{},
		reward:            map[string]ledger.Amount{},
		txns:              map[string]*ledger.TransactionRecord{},
		now:               time.Now,
		failures:          map[string]error{},
		calls:             map[string]int{},
		rewardsConfigured: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Operation names accepted by FailNext and Calls.
const (
	OpTransfer       = "transfer"
	OpMintReward     = "mint_reward"
	OpGetTransaction = "get_transaction"
)

// FailNext makes every subsequent call of op return err until cleared with
// a nil err.
func (l *Ledger) FailNext(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.failures, op)
		return
	}
	l.failures[op] = err
}

// Calls returns how many times op was invoked.
func (l *Ledger) Calls(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

// Fund credits native coins to address without a transaction.
func (l *Ledger) Fund(address string, amount ledger.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.native[ledger.NormalizeAddress(address)] += amount
}

func (l *Ledger) DeriveAddress(cred ledger.Credential) (string, error) {
	acc, err := ledger.AccountFromCredential(cred)
	if err != nil {
		return "", err
	}
	return acc.Address, nil
}

func (l *Ledger) Transfer(ctx context.Context, cred ledger.Credential, to string, amount ledger.Amount) (*ledger.TxResult, error) {
	acc, err := ledger.AccountFromCredential(cred)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedger, "transfer outcome unknown")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[OpTransfer]++
	if err := l.failures[OpTransfer]; err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedger, "transfer failed")
	}

	from := ledger.NormalizeAddress(acc.Address)
	if l.native[from] < amount {
		rec := l.record(acc.Address, transferFunction, false, "EINSUFFICIENT_BALANCE", to, amount)
		return txResult(rec), dErrors.New(dErrors.CodeLedger, "transfer rejected: EINSUFFICIENT_BALANCE")
	}
	l.native[from] -= amount
	l.native[ledger.NormalizeAddress(to)] += amount
	return txResult(l.record(acc.Address, transferFunction, true, "Executed successfully", to, amount)), nil
}

func (l *Ledger) MintReward(ctx context.Context, to string, amount ledger.Amount) (*ledger.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedger, "mint outcome unknown")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[OpMintReward]++
	if !l.rewardsConfigured {
		return nil, dErrors.New(dErrors.CodeLedger, "reward contract address not configured")
	}
	if err := l.failures[OpMintReward]; err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedger, "mint failed")
	}
	l.reward[ledger.NormalizeAddress(to)] += amount
	return txResult(l.record("0x1", mintFunction, true, "Executed successfully", to, amount)), nil
}

func (l *Ledger) GetTransaction(_ context.Context, hash string) (*ledger.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[OpGetTransaction]++
	if err := l.failures[OpGetTransaction]; err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedger, "transaction lookup failed")
	}
	rec, ok := l.txns[strings.ToLower(hash)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	cp := *rec
	return &cp, nil
}

func (l *Ledger) Balance(_ context.Context, address string) (*ledger.Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledger.NormalizeAddress(address)
	return &ledger.Balance{Address: address, Native: l.native[key], Reward: l.reward[key]}, nil
}

// Faucet credits amount to address in a single funding transaction.
func (l *Ledger) Faucet(_ context.Context, address string, amount ledger.Amount) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.native[ledger.NormalizeAddress(address)] += amount
	rec := l.record("0x1", "0x1::aptos_coin::mint", true, "Executed successfully", address, amount)
	return []string{rec.Hash}, nil
}

func (l *Ledger) Status() ledger.Status {
	return ledger.Status{
		Network:                   l.network,
		RewardContractConfigured:  l.rewardsConfigured,
		AdminCredentialConfigured: l.rewardsConfigured,
		ClientReady:               true,
	}
}

func (l *Ledger) Health(context.Context) error {
	return nil
}

// ExplorerURL has no public explorer to point at.
func (l *Ledger) ExplorerURL(string) string {
	return ""
}

// Transactions returns the transaction log in submission order.
func (l *Ledger) Transactions() []ledger.TransactionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ledger.TransactionRecord, 0, len(l.order))
	for _, h := range l.order {
		out = append(out, *l.txns[h])
	}
	return out
}

// record appends a transaction to the log. Callers hold l.mu.
func (l *Ledger) record(sender, function string, success bool, vmStatus, to string, amount ledger.Amount) *ledger.TransactionRecord {
	id := uuid.New()
	hash := fmt.Sprintf("0x%x%x", id[:], id[:])
	rec := &ledger.TransactionRecord{
		Hash:      hash,
		Type:      "user_transaction",
		Sender:    sender,
		Function:  function,
		Arguments: []string{to, fmt.Sprint(amount.Units())},
		Success:   success,
		VMStatus:  vmStatus,
		Version:   uint64(len(l.order) + 1),
		Timestamp: l.now().UTC(),
	}
	l.txns[hash] = rec
	l.order = append(l.order, hash)
	return rec
}

func txResult(rec *ledger.TransactionRecord) *ledger.TxResult {
	return &ledger.TxResult{
		Hash:     rec.Hash,
		Success:  rec.Success,
		VMStatus: rec.VMStatus,
		Version:  rec.Version,
	}
}

var (
	_ ledger.Ledger         = (*Ledger)(nil)
	_ ledger.Wallets        = (*Ledger)(nil)
	_ ledger.StatusReporter = (*Ledger)(nil)
)
