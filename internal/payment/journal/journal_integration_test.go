//go:build integration

package journal_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"facepay/internal/payment/journal"
	"facepay/internal/payment/models"
	"facepay/internal/platform/kafka/producer"
	"facepay/pkg/testutil/containers"
)

type PostgresJournalSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	journal  *journal.Postgres
	ctx      context.Context
}

func TestPostgresJournalSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresJournalSuite))
}

func (s *PostgresJournalSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.journal = journal.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresJournalSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func partialOutcome(requestID string, at time.Time) *models.Outcome {
	return &models.Outcome{
		ID:              uuid.NewString(),
		RequestID:       requestID,
		State:           models.StatePartial,
		Reason:          models.ReasonLedger,
		Message:         "Payment transferred; reward mint failed",
		Detail:          "mint rejected",
		PayerAddress:    "0xc1",
		PayeeAddress:    "0xa1",
		Amount:          250_000_000,
		Confidence:      92,
		TransferReceipt: &models.Receipt{TxID: "0xt1", Amount: 250_000_000},
		Terminal:        "Chrome/Android",
		CompletedAt:     at,
	}
}

func (s *PostgresJournalSuite) TestRecordAndListPartial() {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.journal.Record(s.ctx, partialOutcome("r1", base)))
	s.Require().NoError(s.journal.Record(s.ctx, partialOutcome("r2", base.Add(time.Minute))))

	completed := partialOutcome("r3", base)
	completed.State = models.StateCompleted
	completed.Reason = ""
	completed.RewardReceipt = &models.Receipt{TxID: "0xr3", Amount: completed.Amount}
	s.Require().NoError(s.journal.Record(s.ctx, completed))

	partial, err := s.journal.ListByState(s.ctx, models.StatePartial, 10)
	s.Require().NoError(err)
	s.Require().Len(partial, 2)
	s.Equal("r2", partial[0].RequestID)

	got := partial[1]
	s.Equal(models.ReasonLedger, got.Reason)
	s.Equal("0xt1", got.TransferReceipt.TxID)
	s.Nil(got.RewardReceipt)
	s.Equal(92.0, got.Confidence)
	s.Equal(base, got.CompletedAt)
}

func (s *PostgresJournalSuite) TestPendingTransferIsKept() {
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	o := partialOutcome("r1", at)
	o.State = models.StateTransferFailed
	o.TransferReceipt = nil
	o.PendingTxID = "0xp1"
	s.Require().NoError(s.journal.Record(s.ctx, o))

	failed, err := s.journal.ListByState(s.ctx, models.StateTransferFailed, 10)
	s.Require().NoError(err)
	s.Require().Len(failed, 1)
	s.Equal("0xp1", failed[0].PendingTxID)
	s.Nil(failed[0].TransferReceipt)
}

func (s *PostgresJournalSuite) TestRecordIsIdempotentOnRequestID() {
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.journal.Record(s.ctx, partialOutcome("r1", at)))
	s.Require().NoError(s.journal.Record(s.ctx, partialOutcome("r1", at)))

	partial, err := s.journal.ListByState(s.ctx, models.StatePartial, 10)
	s.Require().NoError(err)
	s.Len(partial, 1)
}

func TestKafkaJournal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	kc := containers.GetManager().GetKafka(t)
	topic := "facepay.payment-outcomes.test"
	require.NoError(t, kc.CreateTopic(ctx, topic))

	p, err := producer.New(producer.DefaultConfig([]string{kc.Brokers}), slog.Default())
	require.NoError(t, err)
	defer p.Close()

	sink := journal.NewKafka(p, topic)
	require.NoError(t, sink.Record(ctx, partialOutcome("r-kafka", time.Now().UTC())))

	rec, err := kc.WaitForKey(ctx, topic, "r-kafka", 30*time.Second)
	require.NoError(t, err)

	ev, err := journal.DecodeEvent(rec.Value)
	require.NoError(t, err)
	require.Equal(t, models.StatePartial, ev.Outcome.State)
	require.Equal(t, "0xt1", ev.Outcome.TransferReceipt.TxID)
}
