// Package service runs the face-verified payment state machine:
//
//	RECEIVED -> VERIFYING -> VERIFIED -> TRANSFERRING -> TRANSFERRED -> REWARDING -> COMPLETED
//
// with the terminal failure branches REJECTED (nothing moved), TRANSFER_FAILED
// (nothing moved, or unknown when a pending transaction is reported) and
// PARTIAL (funds moved, reward missing). No step is ever
// retried; a caller retries with a fresh request ID.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RequestGuard Recorder OutcomeLister

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"facepay/internal/face"
	"facepay/internal/ledger"
	"facepay/internal/payment/matcher"
	"facepay/internal/payment/metrics"
	"facepay/internal/payment/models"
	"facepay/internal/platform/privacy"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/tracer"
	"facepay/pkg/platform/validation"
	"facepay/pkg/requestcontext"
)

const (
	defaultRewardTimeout = 30 * time.Second
	recordTimeout        = 5 * time.Second
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{1,128}$`)

// RequestGuard refuses request IDs that were already used.
type RequestGuard interface {
	Reserve(ctx context.Context, requestID string) error
}

// Recorder receives every terminal outcome.
type Recorder interface {
	Record(ctx context.Context, outcome *models.Outcome) error
}

// OutcomeLister reads recorded outcomes back.
type OutcomeLister interface {
	ListByState(ctx context.Context, state models.State, limit int) ([]*models.Outcome, error)
}

// Service orchestrates identity verification, transfer and reward mint.
type Service struct {
	resolver      face.Resolver
	ledger        ledger.Ledger
	guard         RequestGuard
	recorder      Recorder
	lister        OutcomeLister
	metrics       *metrics.Metrics
	tracer        tracer.Tracer
	logger        *slog.Logger
	rewardTimeout time.Duration
	now           func() time.Time
}

type Option func(*Service)

func WithGuard(g RequestGuard) Option {
	return func(s *Service) { s.guard = g }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithLister(l OutcomeLister) Option {
	return func(s *Service) { s.lister = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRewardTimeout bounds the reward mint, which runs detached from the
// caller's context once the transfer has committed.
func WithRewardTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.rewardTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(resolver face.Resolver, l ledger.Ledger, opts ...Option) *Service {
	s := &Service{
		resolver:      resolver,
		ledger:        l,
		tracer:        tracer.NewNoop(),
		logger:        slog.Default(),
		rewardTimeout: defaultRewardTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// payment is one run of the state machine.
type payment struct {
	outcome *models.Outcome
	span    tracer.Span
}

func (p *payment) advance(to models.State) {
	p.outcome.State = to
	p.outcome.Path = append(p.outcome.Path, to)
	p.span.AddEvent(tracer.EventStateChanged, tracer.String(tracer.AttrState, string(to)))
}

func (p *payment) fail(to models.State, reason models.FailureReason, err error) {
	p.outcome.Reason = reason
	p.outcome.Detail = detailOf(err)
	p.advance(to)
}

// ProcessPayment drives intent to a terminal outcome. The error is non-nil
// only when the intent is refused before any external call (CodeValidation,
// or CodeInternal if the request guard is unreachable); every other failure
// is reported in the outcome.
func (s *Service) ProcessPayment(ctx context.Context, intent *models.Intent) (*models.Outcome, error) {
	amount, err := validateIntent(intent)
	if err != nil {
		s.metrics.IncOutcome(string(models.StateRejected), string(models.ReasonValidation))
		return nil, err
	}
	if s.guard != nil {
		if err := s.guard.Reserve(ctx, intent.RequestID); err != nil {
			if dErrors.HasCode(err, dErrors.CodeValidation) {
				s.metrics.IncOutcome(string(models.StateRejected), string(models.ReasonValidation))
			}
			return nil, err
		}
	}

	s.metrics.IncInFlight()
	defer s.metrics.DecInFlight()

	spanCtx, span := s.tracer.Start(ctx, tracer.SpanPayment,
		tracer.String(tracer.AttrRequestID, intent.RequestID),
	)
	p := &payment{
		outcome: &models.Outcome{
			ID:             uuid.NewString(),
			RequestID:      intent.RequestID,
			State:          models.StateReceived,
			Path:           []models.State{models.StateReceived},
			PayeeAddress:   intent.Payee,
			Amount:         amount,
			Terminal:       requestcontext.Terminal(ctx),
			ClientIPPrefix: privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
		},
		span: span,
	}
	defer func() {
		span.SetAttributes(
			tracer.String(tracer.AttrState, string(p.outcome.State)),
			tracer.String(tracer.AttrReason, string(p.outcome.Reason)),
		)
		span.End(nil)
	}()

	if !s.verify(spanCtx, p, intent) {
		return s.finish(ctx, p), nil
	}
	if !s.transfer(spanCtx, p, intent.Credential, amount) {
		return s.finish(ctx, p), nil
	}

	// The transfer has committed. From here on the caller going away must
	// not suppress the reward attempt or the report.
	s.reward(context.WithoutCancel(spanCtx), p, amount)
	return s.finish(ctx, p), nil
}

func (s *Service) verify(ctx context.Context, p *payment, intent *models.Intent) (ok bool) {
	p.advance(models.StateVerifying)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanPaymentVerify)
	var spanErr error
	defer func() {
		s.metrics.ObserveStep("verify", time.Since(start).Seconds())
		span.End(spanErr)
	}()

	claim, err := s.resolver.Resolve(ctx, intent.Photo)
	if err == nil && claim == nil {
		err = dErrors.New(dErrors.CodeUpstream, "face service returned no identity claim")
	}
	if err != nil {
		spanErr = err
		p.fail(models.StateRejected, models.ReasonUpstream, err)
		return false
	}
	span.SetAttributes(
		tracer.Bool(tracer.AttrRecognized, claim.Recognized),
		tracer.Float64(tracer.AttrConfidence, claim.Confidence),
	)

	payer, err := s.ledger.DeriveAddress(intent.Credential)
	if err != nil {
		spanErr = err
		p.fail(models.StateRejected, models.ReasonCredential, err)
		return false
	}
	p.outcome.PayerAddress = payer

	matched, err := matcher.Match(claim, payer)
	if err != nil {
		spanErr = err
		reason := models.ReasonIdentityMismatch
		if dErrors.HasCode(err, dErrors.CodeNotRecognized) {
			reason = models.ReasonNotRecognized
		}
		p.fail(models.StateRejected, reason, err)
		return false
	}

	p.outcome.PayerAddress = matched.IdentityKey
	p.outcome.Confidence = matched.Confidence
	span.SetAttributes(tracer.String(tracer.AttrPayer, privacy.ShortAddress(matched.IdentityKey)))
	p.advance(models.StateVerified)
	return true
}

func (s *Service) transfer(ctx context.Context, p *payment, cred ledger.Credential, amount ledger.Amount) (ok bool) {
	p.advance(models.StateTransferring)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanPaymentTransfer)
	var spanErr error
	defer func() {
		s.metrics.ObserveStep("transfer", time.Since(start).Seconds())
		span.End(spanErr)
	}()

	res, err := s.ledger.Transfer(ctx, cred, p.outcome.PayeeAddress, amount)
	if err == nil && (res == nil || !res.Success) {
		err = dErrors.New(dErrors.CodeLedger, "transfer was not committed")
	}
	if err != nil {
		spanErr = err
		reason := models.ReasonLedger
		if dErrors.HasCode(err, dErrors.CodeCredential) {
			reason = models.ReasonCredential
		}
		if hash, ok := ledger.PendingHash(err); ok {
			span.SetAttributes(tracer.String(tracer.AttrTxHash, hash))
			p.outcome.PendingTxID = hash
		}
		p.fail(models.StateTransferFailed, reason, err)
		return false
	}

	span.SetAttributes(tracer.String(tracer.AttrTxHash, res.Hash))
	p.outcome.TransferReceipt = &models.Receipt{TxID: res.Hash, Amount: amount}
	p.advance(models.StateTransferred)
	return true
}

// reward mints the same amount that was transferred to the payer. Any
// failure, including a timeout with unknown result, ends in PARTIAL.
func (s *Service) reward(ctx context.Context, p *payment, amount ledger.Amount) {
	p.advance(models.StateRewarding)
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.rewardTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, tracer.SpanPaymentReward)
	var spanErr error
	defer func() {
		s.metrics.ObserveStep("reward", time.Since(start).Seconds())
		span.End(spanErr)
	}()

	res, err := s.ledger.MintReward(ctx, p.outcome.PayerAddress, amount)
	if err == nil && (res == nil || !res.Success) {
		err = dErrors.New(dErrors.CodeLedger, "reward mint was not committed")
	}
	if err != nil {
		spanErr = err
		p.fail(models.StatePartial, models.ReasonLedger, err)
		return
	}

	span.SetAttributes(tracer.String(tracer.AttrTxHash, res.Hash))
	p.outcome.RewardReceipt = &models.Receipt{TxID: res.Hash, Amount: amount}
	p.advance(models.StateCompleted)
}

// finish stamps, records and logs the terminal outcome. Recording runs on a
// detached context and its failure never changes the outcome.
func (s *Service) finish(ctx context.Context, p *payment) *models.Outcome {
	o := p.outcome
	o.CompletedAt = s.now().UTC()
	o.Message = messageFor(o)
	s.metrics.IncOutcome(string(o.State), string(o.Reason))

	if s.recorder != nil {
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		if err := s.recorder.Record(recordCtx, o); err != nil {
			s.metrics.IncJournalError()
			s.logger.ErrorContext(recordCtx, "failed to record payment outcome",
				"request_id", o.RequestID,
				"state", o.State,
				"error", err,
			)
		}
		cancel()
	}

	attrs := []any{
		"request_id", o.RequestID,
		"state", o.State,
		"reason", o.Reason,
		"payer", privacy.ShortAddress(o.PayerAddress),
		"payee", privacy.ShortAddress(o.PayeeAddress),
		"amount", o.Amount.String(),
		"path", o.Path,
	}
	if o.TransferReceipt != nil {
		attrs = append(attrs, "transfer_tx", o.TransferReceipt.TxID)
	}
	if o.PendingTxID != "" {
		attrs = append(attrs, "pending_tx", o.PendingTxID)
	}
	if o.RewardReceipt != nil {
		attrs = append(attrs, "reward_tx", o.RewardReceipt.TxID)
	}
	if o.State.FundsMoved() && ctx.Err() != nil {
		attrs = append(attrs, "caller_gone", true)
	}

	logCtx := context.WithoutCancel(ctx)
	switch o.State {
	case models.StatePartial:
		s.logger.WarnContext(logCtx, "payment partial: transfer committed, reward needs reconciliation", attrs...)
	case models.StateTransferFailed:
		s.logger.WarnContext(logCtx, "payment transfer failed", attrs...)
	default:
		s.logger.InfoContext(logCtx, "payment finished", attrs...)
	}
	return o
}

// GetTransaction looks up a ledger transaction by hash.
func (s *Service) GetTransaction(ctx context.Context, hash string) (*ledger.TransactionRecord, error) {
	if len(hash) > validation.MaxTxHashLength || !txHashPattern.MatchString(hash) {
		return nil, dErrors.New(dErrors.CodeValidation, "transaction hash must be 0x-prefixed hex")
	}
	return s.ledger.GetTransaction(ctx, hash)
}

// ListOutcomes returns recorded outcomes in state, newest first.
func (s *Service) ListOutcomes(ctx context.Context, state models.State, limit int) ([]*models.Outcome, error) {
	if !state.IsTerminal() {
		return nil, dErrors.New(dErrors.CodeValidation, "only terminal states are journaled")
	}
	if s.lister == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "outcome journal is not configured")
	}
	outcomes, err := s.lister.ListByState(ctx, state, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payment outcomes")
	}
	return outcomes, nil
}

func validateIntent(intent *models.Intent) (ledger.Amount, error) {
	if intent == nil {
		return 0, dErrors.New(dErrors.CodeValidation, "payment intent is required")
	}
	if intent.RequestID == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "request id is required")
	}
	if len(intent.RequestID) > validation.MaxRequestIDLength {
		return 0, dErrors.New(dErrors.CodeValidation, "request id is too long")
	}
	if intent.Credential.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "credential is required")
	}
	if intent.Payee == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "payee address is required")
	}
	if intent.Photo.Empty() {
		return 0, dErrors.New(dErrors.CodeValidation, "photo is required")
	}
	return ledger.ParseAmount(intent.Amount)
}

// detailOf keeps only messages this service or its adapters wrote. Raw
// errors may carry upstream bodies and are dropped.
func detailOf(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

func messageFor(o *models.Outcome) string {
	switch o.State {
	case models.StateCompleted:
		return "Payment completed and reward issued"
	case models.StatePartial:
		return "Payment transferred but the reward could not be issued; it will be reconciled"
	case models.StateTransferFailed:
		if o.PendingTxID != "" {
			return "Transfer was submitted but its result is unknown; look up the pending transaction before retrying"
		}
		return "Transfer failed; no funds were moved"
	}
	switch o.Reason {
	case models.ReasonNotRecognized:
		return "Face not recognized"
	case models.ReasonIdentityMismatch:
		return "Face does not match the wallet of the supplied key"
	case models.ReasonCredential:
		return "The supplied private key is not usable"
	case models.ReasonUpstream:
		return "Face recognition is unavailable; no funds were moved"
	default:
		return "Payment rejected"
	}
}
