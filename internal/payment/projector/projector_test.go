package projector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"facepay/internal/ledger"
	"facepay/internal/payment/journal"
	"facepay/internal/payment/models"
	"facepay/internal/payment/service/mocks"
	"facepay/internal/platform/kafka/consumer"
	"facepay/internal/platform/kafka/producer"
)

type captureProducer struct {
	messages []*producer.Message
}

func (c *captureProducer) Produce(_ context.Context, msg *producer.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

type ProjectorSuite struct {
	suite.Suite
	journal *journal.Memory
	proj    *Projector
}

func TestProjectorSuite(t *testing.T) {
	suite.Run(t, new(ProjectorSuite))
}

func (s *ProjectorSuite) SetupTest() {
	s.journal = journal.NewMemory()
	s.proj = New(s.journal, nil)
}

// published encodes outcome the way the Kafka sink does.
func (s *ProjectorSuite) published(outcome *models.Outcome) *consumer.Message {
	capture := &captureProducer{}
	s.Require().NoError(journal.NewKafka(capture, "outcomes").Record(context.Background(), outcome))
	s.Require().Len(capture.messages, 1)
	msg := capture.messages[0]
	return &consumer.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: msg.Headers,
	}
}

func partialOutcome() *models.Outcome {
	return &models.Outcome{
		ID:              "7f0c7a52-4f6e-4a59-9df0-5d1f2b8c9e01",
		RequestID:       "req-partial",
		State:           models.StatePartial,
		Reason:          models.ReasonLedger,
		Message:         "payment sent, reward failed",
		PayerAddress:    "0xa1",
		PayeeAddress:    "0xb2",
		Amount:          ledger.Amount(5 * ledger.UnitsPerCoin),
		TransferReceipt: &models.Receipt{TxID: "0xt1", Amount: ledger.Amount(5 * ledger.UnitsPerCoin)},
		CompletedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *ProjectorSuite) TestRecordsPublishedOutcome() {
	s.Require().NoError(s.proj.Handle(context.Background(), s.published(partialOutcome())))

	partial, err := s.journal.ListByState(context.Background(), models.StatePartial, 0)
	s.Require().NoError(err)
	s.Require().Len(partial, 1)
	s.Equal("req-partial", partial[0].RequestID)
	s.Equal(ledger.Amount(5*ledger.UnitsPerCoin), partial[0].Amount)
	s.Equal("0xt1", partial[0].TransferReceipt.TxID)
	s.True(partial[0].CompletedAt.Equal(partialOutcome().CompletedAt))
}

func (s *ProjectorSuite) TestSkipsOtherEventTypes() {
	msg := s.published(partialOutcome())
	msg.Headers["event_type"] = "wallet.created"

	s.NoError(s.proj.Handle(context.Background(), msg))
	s.Empty(s.journal.All())
}

func (s *ProjectorSuite) TestSkipsUndecodableMessages() {
	s.NoError(s.proj.Handle(context.Background(), &consumer.Message{
		Topic: "outcomes",
		Value: []byte(`{"type":"payment.outcome"}`),
	}))
	s.NoError(s.proj.Handle(context.Background(), &consumer.Message{Value: []byte("garbage")}))
	s.Empty(s.journal.All())
}

func (s *ProjectorSuite) TestRecorderFailureIsReturnedForRedelivery() {
	ctrl := gomock.NewController(s.T())
	recorder := mocks.NewMockRecorder(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	err := New(recorder, nil).Handle(context.Background(), s.published(partialOutcome()))
	s.Require().Error(err)
	s.Contains(err.Error(), "connection reset")
}
