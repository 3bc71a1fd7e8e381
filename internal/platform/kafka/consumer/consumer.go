// Package consumer reads Kafka topics with confluent-kafka-go and hands each
// message to a Handler. Offsets are committed manually, only after the
// handler succeeds.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Message is a received Kafka record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes consumed messages. A non-nil error leaves the offset
// uncommitted and the message is redelivered after RetryBackoff.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// Config holds consumer configuration.
type Config struct {
	Brokers         string
	GroupID         string
	Topics          []string
	AutoOffsetReset string
	PollTimeout     time.Duration
	RetryBackoff    time.Duration
}

// Consumer wraps a confluent-kafka-go consumer.
type Consumer struct {
	cfg      Config
	consumer *kafka.Consumer
	handler  Handler
	logger   *slog.Logger
	running  atomic.Bool
}

// New creates a consumer; Run subscribes and starts polling.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if cfg.Brokers == "" {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka consumer group ID not configured")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("kafka topics not configured")
	}
	if cfg.AutoOffsetReset == "" {
		cfg.AutoOffsetReset = "earliest"
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 100 * time.Millisecond
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  cfg.AutoOffsetReset,
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{cfg: cfg, consumer: c, handler: handler, logger: logger}, nil
}

// Run consumes until ctx is done, then closes the consumer. It returns nil
// on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.consumer.SubscribeTopics(c.cfg.Topics, nil); err != nil {
		_ = c.consumer.Close()
		return fmt.Errorf("subscribe to topics: %w", err)
	}
	c.running.Store(true)
	defer func() {
		c.running.Store(false)
		if err := c.consumer.Close(); err != nil {
			c.logger.Warn("kafka consumer close failed", "error", err)
		}
	}()

	timeoutMs := int(c.cfg.PollTimeout.Milliseconds())
	for ctx.Err() == nil {
		switch e := c.consumer.Poll(timeoutMs).(type) {
		case *kafka.Message:
			c.handleMessage(ctx, e)
		case kafka.Error:
			if e.Code() != kafka.ErrTimedOut {
				c.logger.Error("kafka consumer error",
					"code", e.Code(),
					"error", e.Error(),
				)
			}
		}
	}
	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, km *kafka.Message) {
	headers := make(map[string]string, len(km.Headers))
	for _, h := range km.Headers {
		headers[h.Key] = string(h.Value)
	}
	msg := &Message{
		Partition: km.TopicPartition.Partition,
		Offset:    int64(km.TopicPartition.Offset),
		Key:       km.Key,
		Value:     km.Value,
		Headers:   headers,
		Timestamp: km.Timestamp,
	}
	if km.TopicPartition.Topic != nil {
		msg.Topic = *km.TopicPartition.Topic
	}

	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.Error("failed to handle message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		c.rewind(ctx, km.TopicPartition)
		return
	}

	if _, err := c.consumer.CommitMessage(km); err != nil {
		c.logger.Error("failed to commit offset",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

// rewind seeks back to tp so the failed message is polled again after the
// backoff.
func (c *Consumer) rewind(ctx context.Context, tp kafka.TopicPartition) {
	if err := c.consumer.Seek(tp, 0); err != nil {
		c.logger.Error("failed to seek back to failed message", "error", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.RetryBackoff):
	}
}

// Health reports an error unless Run is active and partitions are assigned.
func (c *Consumer) Health(context.Context) error {
	if !c.running.Load() {
		return errors.New("consumer not running")
	}
	assignment, err := c.consumer.Assignment()
	if err != nil {
		return fmt.Errorf("read assignment: %w", err)
	}
	if len(assignment) == 0 {
		return errors.New("no partitions assigned")
	}
	return nil
}
