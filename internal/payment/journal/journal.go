// Package journal records terminal payment outcomes. Outcomes never carry
// credentials, so every sink receives the same value the caller sees.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"facepay/internal/payment/models"
)

// Recorder persists or publishes one terminal outcome.
type Recorder interface {
	Record(ctx context.Context, outcome *models.Outcome) error
}

// Lister reads recorded outcomes back, newest first.
type Lister interface {
	ListByState(ctx context.Context, state models.State, limit int) ([]*models.Outcome, error)
}

// EventType is the type carried by published outcome events.
const EventType = "payment.outcome"

// Event is the wire form of an outcome on Kafka and AMQP.
type Event struct {
	Type    string          `json:"type"`
	Outcome *models.Outcome `json:"outcome"`
}

func encodeEvent(outcome *models.Outcome) ([]byte, error) {
	return json.Marshal(Event{Type: EventType, Outcome: outcome})
}

// DecodeEvent parses an event produced by a publishing sink.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Type != EventType || ev.Outcome == nil {
		return nil, errors.New("not a payment outcome event")
	}
	return &ev, nil
}

// RoutingKey is "payment.outcome.<state>" in lower case, e.g.
// payment.outcome.partial.
func RoutingKey(state models.State) string {
	return EventType + "." + strings.ToLower(string(state))
}

// Fanout records to every sink and joins their errors. A failing sink does
// not stop the others.
type Fanout []Recorder

func (f Fanout) Record(ctx context.Context, outcome *models.Outcome) error {
	var errs []error
	for _, r := range f {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
