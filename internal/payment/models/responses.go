package models

import "facepay/internal/ledger"

// PaymentResponse is returned for every face payment that reached a
// terminal state.
type PaymentResponse struct {
	Success         bool          `json:"success"`
	State           State         `json:"state"`
	Reason          FailureReason `json:"reason,omitempty"`
	Message         string        `json:"message"`
	Detail          string        `json:"detail,omitempty"`
	RequestID       string        `json:"request_id"`
	PayerAddress    string        `json:"payer_address,omitempty"`
	MerchantAddress string        `json:"merchant_address"`
	Amount          ledger.Amount `json:"amount"`
	Confidence      float64       `json:"confidence,omitempty"`
	TransferReceipt *Receipt      `json:"transfer_receipt,omitempty"`
	RewardReceipt   *Receipt      `json:"reward_receipt,omitempty"`
	PendingTxID     string        `json:"pending_tx_id,omitempty"`
	ExplorerURL     string        `json:"explorer_url,omitempty"`
}

// FromOutcome builds the response body for o.
func FromOutcome(o *Outcome, explorerURL string) *PaymentResponse {
	return &PaymentResponse{
		Success:         o.State == StateCompleted,
		State:           o.State,
		Reason:          o.Reason,
		Message:         o.Message,
		Detail:          o.Detail,
		RequestID:       o.RequestID,
		PayerAddress:    o.PayerAddress,
		MerchantAddress: o.PayeeAddress,
		Amount:          o.Amount,
		Confidence:      o.Confidence,
		TransferReceipt: o.TransferReceipt,
		RewardReceipt:   o.RewardReceipt,
		PendingTxID:     o.PendingTxID,
		ExplorerURL:     explorerURL,
	}
}

type TransactionResponse struct {
	Transaction *ledger.TransactionRecord `json:"transaction"`
	ExplorerURL string                    `json:"explorer_url,omitempty"`
}

type PartialListResponse struct {
	Count    int        `json:"count"`
	Outcomes []*Outcome `json:"outcomes"`
}
