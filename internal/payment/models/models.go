package models

import (
	"time"

	"facepay/internal/face"
	"facepay/internal/ledger"
)

// State is a step of the payment state machine.
type State string

const (
	StateReceived       State = "RECEIVED"
	StateVerifying      State = "VERIFYING"
	StateVerified       State = "VERIFIED"
	StateTransferring   State = "TRANSFERRING"
	StateTransferred    State = "TRANSFERRED"
	StateRewarding      State = "REWARDING"
	StateCompleted      State = "COMPLETED"
	StateRejected       State = "REJECTED"
	StateTransferFailed State = "TRANSFER_FAILED"
	StatePartial        State = "PARTIAL"
)

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateRejected, StateTransferFailed, StatePartial:
		return true
	}
	return false
}

// FundsMoved reports whether a payment in state s has transferred value.
func (s State) FundsMoved() bool {
	switch s {
	case StateTransferred, StateRewarding, StateCompleted, StatePartial:
		return true
	}
	return false
}

// FailureReason is the machine-readable cause carried by a failed or
// partial outcome.
type FailureReason string

const (
	ReasonValidation       FailureReason = "ValidationError"
	ReasonUpstream         FailureReason = "UpstreamError"
	ReasonCredential       FailureReason = "CredentialError"
	ReasonNotRecognized    FailureReason = "NotRecognized"
	ReasonIdentityMismatch FailureReason = "IdentityMismatch"
	ReasonLedger           FailureReason = "LedgerError"
)

// Intent is a single payment request. Credential is used to derive the payer
// address and authorize the transfer; it never leaves the request.
type Intent struct {
	RequestID  string
	Credential ledger.Credential
	Payee      string
	Amount     float64
	Photo      face.Photo
}

// Receipt identifies a committed ledger transaction.
type Receipt struct {
	TxID   string        `json:"tx_id"`
	Amount ledger.Amount `json:"amount"`
}

// Outcome is the single terminal result of an Intent. It is safe to log,
// journal and return to callers.
type Outcome struct {
	ID              string        `json:"id"`
	RequestID       string        `json:"request_id"`
	State           State         `json:"state"`
	Reason          FailureReason `json:"reason,omitempty"`
	Message         string        `json:"message"`
	Detail          string        `json:"detail,omitempty"`
	PayerAddress    string        `json:"payer_address,omitempty"`
	PayeeAddress    string        `json:"payee_address"`
	Amount          ledger.Amount `json:"amount"`
	Confidence      float64       `json:"confidence,omitempty"`
	TransferReceipt *Receipt      `json:"transfer_receipt,omitempty"`
	RewardReceipt   *Receipt      `json:"reward_receipt,omitempty"`
	// PendingTxID is a transfer the ledger accepted but never confirmed. It
	// may still commit.
	PendingTxID     string        `json:"pending_tx_id,omitempty"`
	Path            []State       `json:"path,omitempty"`
	Terminal        string        `json:"terminal,omitempty"`
	ClientIPPrefix  string        `json:"client_ip_prefix,omitempty"`
	CompletedAt     time.Time     `json:"completed_at"`
}

// NeedsReconciliation reports whether funds moved without a reward.
func (o *Outcome) NeedsReconciliation() bool {
	return o.State == StatePartial
}
