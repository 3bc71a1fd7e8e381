package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"log/slog"
	"sync"

	"facepay/internal/enrollment/metrics"
	"facepay/internal/enrollment/models"
	"facepay/internal/face"
	"facepay/internal/platform/privacy"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/requestcontext"
)

// Store defines the persistence interface for enrollments.
// Error Contract:
// - Insert returns store.ErrAlreadyEnrolled when the key exists
// - Get returns store.ErrNotFound when the key is absent
type Store interface {
	Insert(ctx context.Context, identity *models.EnrolledIdentity) error
	Get(ctx context.Context, key string) (*models.EnrolledIdentity, error)
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// Service enforces one enrollment per identity key.
type Service struct {
	store    Store
	resolver face.Resolver
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// pending holds keys whose face template is being registered so that two
	// concurrent enrollments never both reach the face service.
	mu      sync.Mutex
	pending map[string]struct{}
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(store Store, resolver face.Resolver, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		resolver: resolver,
		logger:   slog.Default(),
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Enroll registers photo with the face service under identityKey and stores
// the resulting template reference. An identity that is already enrolled,
// or whose enrollment is in flight, fails with CodeAlreadyEnrolled and no
// face service call.
func (s *Service) Enroll(ctx context.Context, identityKey string, photo face.Photo) (*models.EnrolledIdentity, error) {
	key := models.NormalizeKey(identityKey)
	if key == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identity key is required")
	}
	if photo.Empty() {
		return nil, dErrors.New(dErrors.CodeValidation, "photo is required")
	}

	if err := s.reserve(ctx, key); err != nil {
		s.metrics.IncEnrollment(outcomeOf(err))
		return nil, err
	}
	defer s.release(key)

	ref, err := s.resolver.EnrollTemplate(ctx, key, photo)
	if err == nil && ref == "" {
		err = dErrors.New(dErrors.CodeUpstream, "face service returned no template reference")
	}
	if err != nil {
		s.logger.WarnContext(ctx, "face template registration failed",
			"identity", privacy.ShortAddress(key),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		s.metrics.IncEnrollment("upstream_error")
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "face enrollment failed")
	}

	identity := &models.EnrolledIdentity{
		IdentityKey: key,
		TemplateRef: ref,
		EnrolledAt:  requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Insert(ctx, identity); err != nil {
		// Another replica won the race; its record stands.
		if dErrors.HasCode(err, dErrors.CodeAlreadyEnrolled) {
			s.logger.WarnContext(ctx, "enrollment lost race, face template orphaned",
				"identity", privacy.ShortAddress(key),
				"template_ref", ref,
			)
			s.metrics.IncEnrollment("already_enrolled")
			return nil, dErrors.New(dErrors.CodeAlreadyEnrolled, "wallet already enrolled")
		}
		s.metrics.IncEnrollment("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store enrollment")
	}

	s.metrics.IncEnrollment("enrolled")
	s.logger.InfoContext(ctx, "identity enrolled",
		"identity", privacy.ShortAddress(key),
		"template_ref", ref,
		"request_id", requestcontext.RequestID(ctx),
	)
	return identity, nil
}

func (s *Service) reserve(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[key]; busy {
		return dErrors.New(dErrors.CodeAlreadyEnrolled, "wallet enrollment already in progress")
	}
	enrolled, err := s.isEnrolled(ctx, key)
	if err != nil {
		return err
	}
	if enrolled {
		return dErrors.New(dErrors.CodeAlreadyEnrolled, "wallet already enrolled")
	}
	s.pending[key] = struct{}{}
	return nil
}

func (s *Service) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// IsEnrolled reports whether identityKey has an enrollment. It has no side effects.
func (s *Service) IsEnrolled(ctx context.Context, identityKey string) (bool, error) {
	return s.isEnrolled(ctx, models.NormalizeKey(identityKey))
}

func (s *Service) isEnrolled(ctx context.Context, key string) (bool, error) {
	_, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return false, nil
	default:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read enrollment")
	}
}

// Get returns the enrollment for identityKey.
func (s *Service) Get(ctx context.Context, identityKey string) (*models.EnrolledIdentity, error) {
	identity, err := s.store.Get(ctx, models.NormalizeKey(identityKey))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read enrollment")
	}
	return identity, nil
}

// ListEnrolled returns the enrolled identity keys in sorted order.
func (s *Service) ListEnrolled(ctx context.Context) ([]string, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enrollments")
	}
	return keys, nil
}

// ClearAll removes every enrollment. Face templates stay in the face service.
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear enrollments")
	}
	s.metrics.IncClear()
	s.logger.InfoContext(ctx, "enrollments cleared",
		"admin", requestcontext.AdminSubject(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Recognize resolves photo without paying and reports whether the claimed
// identity is enrolled here.
func (s *Service) Recognize(ctx context.Context, photo face.Photo) (*models.Recognition, error) {
	if photo.Empty() {
		return nil, dErrors.New(dErrors.CodeValidation, "photo is required")
	}
	claim, err := s.resolver.Resolve(ctx, photo)
	if err != nil {
		s.metrics.IncRecognition("upstream_error")
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "face recognition failed")
	}
	result := &models.Recognition{Claim: claim}
	if !claim.Recognized {
		s.metrics.IncRecognition("not_recognized")
		return result, nil
	}
	result.Enrolled, err = s.IsEnrolled(ctx, claim.ClaimedIdentityKey)
	if err != nil {
		return nil, err
	}
	s.metrics.IncRecognition("recognized")
	return result, nil
}

func outcomeOf(err error) string {
	if dErrors.HasCode(err, dErrors.CodeAlreadyEnrolled) {
		return "already_enrolled"
	}
	return "error"
}
