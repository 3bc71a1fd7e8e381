// Package tracer provides a lightweight tracing abstraction.
//
// Payment and upstream code emits spans through the Tracer interface so that
// only the OTel adapter depends on OpenTelemetry APIs.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err when non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span. The returned context carries the span.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanPaymentTransfer,
	//       tracer.String(tracer.AttrRequestID, requestID),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanPayment         = "payment.process"
	SpanPaymentVerify   = "payment.verify"
	SpanPaymentTransfer = "payment.transfer"
	SpanPaymentReward   = "payment.reward"
	SpanFaceResolve     = "face.resolve"
	SpanFaceEnroll      = "face.enroll"
	SpanLedgerSubmit    = "ledger.submit"
)

// Attribute keys.
const (
	AttrRequestID  = "request_id"
	AttrState      = "payment.state"
	AttrReason     = "payment.failure_reason"
	AttrPayer      = "payment.payer"
	AttrTxHash     = "ledger.tx_hash"
	AttrRecognized = "face.recognized"
	AttrConfidence = "face.confidence"
	AttrUpstream   = "upstream"
)

// Event names.
const (
	EventStateChanged = "payment.state_changed"
)
