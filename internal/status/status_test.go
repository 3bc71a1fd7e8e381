package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"facepay/internal/ledger"
	"facepay/internal/ledger/mocks"
	ledgermemory "facepay/internal/ledger/memory"
	dErrors "facepay/pkg/domain-errors"
)

func TestRegistry(t *testing.T) {
	t.Run("copies the reported status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reporter := mocks.NewMockStatusReporter(ctrl)
		reporter.EXPECT().Status().Return(ledger.Status{
			Network:                   "testnet",
			RewardContractConfigured:  false,
			AdminCredentialConfigured: true,
			ClientReady:               true,
		}).Times(1)

		reg := New(reporter)
		assert.Equal(t, Snapshot{
			Network:                   "testnet",
			AdminCredentialConfigured: true,
			LedgerClientReady:         true,
		}, reg.Snapshot())
		// computed once; the reporter is not consulted again
		_ = reg.Snapshot()

		require.NoError(t, reg.RequirePayments())
		require.NoError(t, reg.RequireAdminCredential())
	})

	t.Run("nil reporter is not ready", func(t *testing.T) {
		reg := New(nil)
		assert.False(t, reg.Snapshot().LedgerClientReady)
		assert.True(t, dErrors.HasCode(reg.RequirePayments(), dErrors.CodeUnavailable))
		assert.True(t, dErrors.HasCode(reg.RequireAdminCredential(), dErrors.CodeUnavailable))
	})

	t.Run("memory ledger without rewards", func(t *testing.T) {
		reg := New(ledgermemory.New(ledgermemory.WithoutRewards()))
		snap := reg.Snapshot()
		assert.True(t, snap.LedgerClientReady)
		assert.False(t, snap.RewardContractConfigured)
		require.NoError(t, reg.RequirePayments())
	})
}
