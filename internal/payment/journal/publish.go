package journal

import (
	"context"
	"fmt"

	"facepay/internal/payment/models"
	"facepay/internal/platform/kafka/producer"
)

// MessageProducer is satisfied by *producer.Producer.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Kafka publishes outcome events keyed by request ID so that every event of
// one request lands on the same partition.
type Kafka struct {
	producer MessageProducer
	topic    string
}

func NewKafka(p MessageProducer, topic string) *Kafka {
	return &Kafka{producer: p, topic: topic}
}

func (k *Kafka) Record(ctx context.Context, outcome *models.Outcome) error {
	body, err := encodeEvent(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome event: %w", err)
	}
	err = k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(outcome.RequestID),
		Value: body,
		Headers: map[string]string{
			"event_type": EventType,
			"state":      string(outcome.State),
		},
	})
	if err != nil {
		return fmt.Errorf("publish outcome to kafka: %w", err)
	}
	return nil
}

// MessagePublisher is satisfied by *amqp.Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

// AMQP publishes outcome events to a topic exchange under RoutingKey, so a
// reconciliation queue can bind to payment.outcome.partial alone.
type AMQP struct {
	publisher MessagePublisher
}

func NewAMQP(p MessagePublisher) *AMQP {
	return &AMQP{publisher: p}
}

func (a *AMQP) Record(ctx context.Context, outcome *models.Outcome) error {
	body, err := encodeEvent(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome event: %w", err)
	}
	if err := a.publisher.Publish(ctx, RoutingKey(outcome.State), outcome.ID, body); err != nil {
		return fmt.Errorf("publish outcome to amqp: %w", err)
	}
	return nil
}
