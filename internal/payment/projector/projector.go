// Package projector replays published payment outcome events into a
// journal. It runs in its own process so the API server stays free of the
// confluent client.
package projector

import (
	"context"
	"log/slog"

	"facepay/internal/payment/journal"
	"facepay/internal/platform/kafka/consumer"
)

// Projector is a consumer.Handler that records every outcome event.
type Projector struct {
	recorder journal.Recorder
	logger   *slog.Logger
}

func New(recorder journal.Recorder, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{recorder: recorder, logger: logger}
}

// Handle records the outcome carried by msg. Messages that are not outcome
// events, or cannot be decoded, are skipped so they do not block the
// partition. A recorder error is returned and the message is redelivered.
func (p *Projector) Handle(ctx context.Context, msg *consumer.Message) error {
	if t, ok := msg.Headers["event_type"]; ok && t != journal.EventType {
		return nil
	}
	ev, err := journal.DecodeEvent(msg.Value)
	if err != nil {
		p.logger.WarnContext(ctx, "skipping undecodable outcome event",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if err := p.recorder.Record(ctx, ev.Outcome); err != nil {
		p.logger.ErrorContext(ctx, "failed to project outcome",
			"request_id", ev.Outcome.RequestID,
			"state", ev.Outcome.State,
			"error", err,
		)
		return err
	}
	p.logger.DebugContext(ctx, "outcome projected",
		"request_id", ev.Outcome.RequestID,
		"state", ev.Outcome.State,
	)
	return nil
}
