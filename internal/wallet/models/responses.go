package models

import (
	"facepay/internal/ledger"
	"facepay/internal/status"
)

type CreateWalletResponse struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	Message    string `json:"message"`
}

type BalanceResponse struct {
	*ledger.Balance
	Message string `json:"message"`
}

type FaucetResponse struct {
	*Funding
	Message string `json:"message"`
}

type MintResponse struct {
	*Mint
	ExplorerURL string `json:"explorer_url,omitempty"`
	Message     string `json:"message"`
}

type StatusResponse struct {
	status.Snapshot
	Message string `json:"message"`
}
