package models

import (
	"strings"

	"facepay/internal/ledger"
	pkgvalidation "facepay/pkg/validation"
)

// CreatedWallet is a freshly generated key pair. It is the only value in the
// service that carries a private key outward.
type CreatedWallet struct {
	Address    string            `json:"address"`
	PrivateKey ledger.Credential `json:"-"`
	PublicKey  string            `json:"public_key"`
}

// Funding is the result of a faucet request.
type Funding struct {
	Address  string        `json:"address"`
	Amount   ledger.Amount `json:"amount"`
	TxHashes []string      `json:"tx_hashes"`
}

// Mint is the result of an admin reward mint.
type Mint struct {
	Address string           `json:"address"`
	Amount  ledger.Amount    `json:"amount"`
	Result  *ledger.TxResult `json:"result"`
}

type AddressRequest struct {
	Address string `json:"address" validate:"required,ledgeraddr"`
}

func (r *AddressRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
}

func (r *AddressRequest) Validate() error {
	return pkgvalidation.Validate(r)
}

// AmountRequest carries an address and an amount in whole coins. Amount is
// optional for the faucet.
type AmountRequest struct {
	Address string   `json:"address" validate:"required,ledgeraddr"`
	Amount  *float64 `json:"amount"`
}

func (r *AmountRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
}

func (r *AmountRequest) Validate() error {
	return pkgvalidation.Validate(r)
}
