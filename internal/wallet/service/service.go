// Package service implements the wallet operations offered next to face
// payments: key pair generation, balances, devnet funding and admin reward
// mints.
package service

import (
	"context"
	"log/slog"

	"facepay/internal/ledger"
	"facepay/internal/platform/privacy"
	"facepay/internal/status"
	"facepay/internal/wallet/models"
	dErrors "facepay/pkg/domain-errors"
)

// DefaultFaucetAmount is funded when a faucet request names no amount.
const DefaultFaucetAmount = ledger.Amount(ledger.UnitsPerCoin)

// Registry is the readiness view wallet operations consult.
type Registry interface {
	Snapshot() status.Snapshot
	RequireAdminCredential() error
}

// Service exposes wallet operations over a ledger client.
type Service struct {
	ledger   ledger.Ledger
	wallets  ledger.Wallets
	registry Registry
	logger   *slog.Logger
}

// New creates a wallet Service.
func New(l ledger.Ledger, wallets ledger.Wallets, registry Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: l, wallets: wallets, registry: registry, logger: logger}
}

// Create generates a new key pair. The private key is returned once and
// never stored.
func (s *Service) Create(ctx context.Context) (*models.CreatedWallet, error) {
	acc, err := ledger.GenerateAccount()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate wallet")
	}
	s.logger.InfoContext(ctx, "wallet created", "address", privacy.ShortAddress(acc.Address))
	return &models.CreatedWallet{
		Address:    acc.Address,
		PrivateKey: acc.ExportPrivateKey(),
		PublicKey:  acc.PublicKeyHex(),
	}, nil
}

func (s *Service) Balance(ctx context.Context, address string) (*ledger.Balance, error) {
	return s.wallets.Balance(ctx, address)
}

// Faucet funds address from the network faucet. A nil amount funds
// DefaultFaucetAmount.
func (s *Service) Faucet(ctx context.Context, address string, amount *float64) (*models.Funding, error) {
	units := DefaultFaucetAmount
	if amount != nil {
		parsed, err := ledger.ParseAmount(*amount)
		if err != nil {
			return nil, err
		}
		units = parsed
	}
	hashes, err := s.wallets.Faucet(ctx, address, units)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "faucet funded",
		"address", privacy.ShortAddress(address),
		"amount", units.String(),
	)
	return &models.Funding{Address: address, Amount: units, TxHashes: hashes}, nil
}

// Mint issues reward tokens to address outside any payment. It requires the
// admin credential; a committed but failed mint is a ledger error.
func (s *Service) Mint(ctx context.Context, address string, amount float64) (*models.Mint, error) {
	if err := s.registry.RequireAdminCredential(); err != nil {
		return nil, err
	}
	units, err := ledger.ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	res, err := s.ledger.MintReward(ctx, address, units)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, dErrors.New(dErrors.CodeLedger, "mint rejected: "+res.VMStatus)
	}
	s.logger.InfoContext(ctx, "reward minted",
		"address", privacy.ShortAddress(address),
		"amount", units.String(),
		"tx", res.Hash,
	)
	return &models.Mint{Address: address, Amount: units, Result: res}, nil
}

func (s *Service) Status() status.Snapshot {
	return s.registry.Snapshot()
}
