// Package status exposes a read-only snapshot of the service's readiness to
// take payments. The snapshot is computed once from configuration at startup.
package status

import (
	"facepay/internal/ledger"
	dErrors "facepay/pkg/domain-errors"
)

// Snapshot is the readiness view returned to callers and health probes.
type Snapshot struct {
	Network                   string `json:"network"`
	RewardContractConfigured  bool   `json:"rewardContractConfigured"`
	AdminCredentialConfigured bool   `json:"adminCredentialConfigured"`
	LedgerClientReady         bool   `json:"ledgerClientReady"`
}

// Registry holds the startup snapshot. It has no mutators.
type Registry struct {
	snapshot Snapshot
}

// New captures the status reported by the ledger client. A nil reporter
// yields a registry that reports nothing ready.
func New(reporter ledger.StatusReporter) *Registry {
	if reporter == nil {
		return &Registry{}
	}
	st := reporter.Status()
	return &Registry{snapshot: Snapshot{
		Network:                   st.Network,
		RewardContractConfigured:  st.RewardContractConfigured,
		AdminCredentialConfigured: st.AdminCredentialConfigured,
		LedgerClientReady:         st.ClientReady,
	}}
}

// Snapshot returns a copy of the current status.
func (r *Registry) Snapshot() Snapshot {
	return r.snapshot
}

// RequirePayments fails with CodeUnavailable when the ledger client cannot
// take payments. A missing reward contract does not block payments; those
// end in PARTIAL.
func (r *Registry) RequirePayments() error {
	if !r.snapshot.LedgerClientReady {
		return dErrors.New(dErrors.CodeUnavailable, "ledger client not initialized")
	}
	return nil
}

// RequireAdminCredential fails with CodeUnavailable when admin-signed ledger
// operations (reward mint) cannot be submitted.
func (r *Registry) RequireAdminCredential() error {
	if !r.snapshot.AdminCredentialConfigured {
		return dErrors.New(dErrors.CodeUnavailable, "admin credential not configured")
	}
	return nil
}
