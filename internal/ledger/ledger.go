// Package ledger defines the contract the payment core consumes from the
// ledger (address derivation, value transfer, reward mint, transaction
// lookup) together with the value types that cross it.
package ledger

//go:generate mockgen -source=ledger.go -destination=mocks/mocks.go -package=mocks Ledger Wallets StatusReporter

import (
	"context"
	"errors"
	"time"
)

// Ledger is the ledger collaborator of the payment orchestrator.
//
// DeriveAddress fails with a credential error (dErrors.CodeCredential).
// Transfer, MintReward and GetTransaction fail with dErrors.CodeLedger, or
// dErrors.CodeNotFound for unknown transactions. A timeout before submission
// is a plain ledger error. Once the node has accepted a transaction, a
// failure to learn its result is reported as *UnconfirmedError.
type Ledger interface {
	DeriveAddress(cred Credential) (string, error)
	Transfer(ctx context.Context, cred Credential, to string, amount Amount) (*TxResult, error)
	MintReward(ctx context.Context, to string, amount Amount) (*TxResult, error)
	GetTransaction(ctx context.Context, hash string) (*TransactionRecord, error)
}

// UnconfirmedError reports a transaction the node accepted whose commit
// status could not be learned. The transaction may still commit.
type UnconfirmedError struct {
	Hash string
	Err  error
}

func (e *UnconfirmedError) Error() string {
	return e.Err.Error()
}

func (e *UnconfirmedError) Unwrap() error {
	return e.Err
}

// PendingHash returns the hash carried by an *UnconfirmedError in err's chain.
func PendingHash(err error) (string, bool) {
	var ue *UnconfirmedError
	if errors.As(err, &ue) && ue.Hash != "" {
		return ue.Hash, true
	}
	return "", false
}

// Wallets are the pass-through wallet operations exposed next to payments.
type Wallets interface {
	Balance(ctx context.Context, address string) (*Balance, error)
	Faucet(ctx context.Context, address string, amount Amount) ([]string, error)
}

// Status is what the ledger client reports about its own configuration.
type Status struct {
	Network                   string
	RewardContractConfigured  bool
	AdminCredentialConfigured bool
	ClientReady               bool
}

// StatusReporter is implemented by ledger clients that expose readiness.
type StatusReporter interface {
	Status() Status
}

// TxResult is the committed result of a submitted transaction.
type TxResult struct {
	Hash     string `json:"hash"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status,omitempty"`
	GasUsed  uint64 `json:"gas_used,omitempty"`
	Version  uint64 `json:"version,omitempty"`
}

// TransactionRecord is a transaction as returned by a lookup.
type TransactionRecord struct {
	Hash      string    `json:"hash"`
	Type      string    `json:"type"`
	Sender    string    `json:"sender,omitempty"`
	Function  string    `json:"function,omitempty"`
	Arguments []string  `json:"arguments,omitempty"`
	Success   bool      `json:"success"`
	VMStatus  string    `json:"vm_status,omitempty"`
	GasUsed   uint64    `json:"gas_used,omitempty"`
	Version   uint64    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Balance is the native coin and reward token balance of an address.
type Balance struct {
	Address string `json:"address"`
	Native  Amount `json:"native"`
	Reward  Amount `json:"reward"`
}
