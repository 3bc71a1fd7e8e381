package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"facepay/internal/enrollment/metrics"
	"facepay/internal/enrollment/service/mocks"
	"facepay/internal/enrollment/store"
	"facepay/internal/face"
	facememory "facepay/internal/face/memory"
	facemocks "facepay/internal/face/mocks"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/requestcontext"
	pkgtestutil "facepay/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store    *store.InMemoryStore
	resolver *facememory.Resolver
	metrics  *metrics.Metrics
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.New()
	s.resolver = facememory.New()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.resolver,
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
}

func (s *ServiceSuite) TestEnroll() {
	identity, err := s.service.Enroll(s.ctx, " 0xC1 ", pkgtestutil.Photo("alice"))
	s.Require().NoError(err)
	s.Equal("0xc1", identity.IdentityKey)
	s.NotEmpty(identity.TemplateRef)
	s.Equal(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), identity.EnrolledAt)

	enrolled, err := s.service.IsEnrolled(s.ctx, "0xc1")
	s.Require().NoError(err)
	s.True(enrolled)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Enrollments.WithLabelValues("enrolled")))
}

// TestEnrollTwiceKeepsFirstRecord verifies write-once enrollment: the second
// attempt fails and never reaches the face service.
func (s *ServiceSuite) TestEnrollTwiceKeepsFirstRecord() {
	first, err := s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
	s.Require().NoError(err)

	_, err = s.service.Enroll(s.ctx, "0xC1", pkgtestutil.Photo("alice-again"))
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyEnrolled))

	stored, err := s.service.Get(s.ctx, "0xc1")
	s.Require().NoError(err)
	s.Equal(first.TemplateRef, stored.TemplateRef)

	_, enrolls := s.resolver.Calls()
	s.Equal(1, enrolls)
}

func (s *ServiceSuite) TestEnrollValidation() {
	_, err := s.service.Enroll(s.ctx, "  ", pkgtestutil.Photo("x"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Enroll(s.ctx, "0xc1", face.Photo{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, enrolls := s.resolver.Calls()
	s.Zero(enrolls)
}

func (s *ServiceSuite) TestEnrollUpstreamFailureStoresNothing() {
	s.resolver.Fail(errors.New("luxand down"))
	_, err := s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
	s.True(dErrors.HasCode(err, dErrors.CodeUpstream))

	enrolled, err := s.service.IsEnrolled(s.ctx, "0xc1")
	s.Require().NoError(err)
	s.False(enrolled)

	s.resolver.Fail(nil)
	_, err = s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
	s.NoError(err, "a failed enrollment does not block a retry")
}

func (s *ServiceSuite) TestConcurrentEnrollSameKey() {
	result := pkgtestutil.Race(20, func(idx int) error {
		_, err := s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
		return err
	})
	s.Equal(1, result.Successes)
	s.Equal(19, result.Failed(dErrors.CodeAlreadyEnrolled))

	_, enrolls := s.resolver.Calls()
	s.Equal(1, enrolls)
}

func (s *ServiceSuite) TestReadsAreIdempotent() {
	for _, k := range []string{"0xb", "0xa"} {
		_, err := s.service.Enroll(s.ctx, k, pkgtestutil.Photo(k))
		s.Require().NoError(err)
	}

	first, err := s.service.ListEnrolled(s.ctx)
	s.Require().NoError(err)
	for range 3 {
		again, err := s.service.ListEnrolled(s.ctx)
		s.Require().NoError(err)
		s.Equal(first, again)

		enrolled, err := s.service.IsEnrolled(s.ctx, "0xa")
		s.Require().NoError(err)
		s.True(enrolled)
	}
	s.Equal([]string{"0xa", "0xb"}, first)
}

func (s *ServiceSuite) TestClearAll() {
	_, err := s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
	s.Require().NoError(err)

	s.Require().NoError(s.service.ClearAll(s.ctx))
	keys, err := s.service.ListEnrolled(s.ctx)
	s.Require().NoError(err)
	s.Empty(keys)

	_, err = s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
	s.NoError(err, "cleared identities can enroll again")
}

func (s *ServiceSuite) TestClearAllConcurrentWithEnroll() {
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
		}()
		go func() {
			defer wg.Done()
			_ = s.service.ClearAll(s.ctx)
		}()
	}
	wg.Wait()

	keys, err := s.service.ListEnrolled(s.ctx)
	s.Require().NoError(err)
	s.LessOrEqual(len(keys), 1)
}

func (s *ServiceSuite) TestRecognize() {
	_, err := s.service.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
	s.Require().NoError(err)

	result, err := s.service.Recognize(s.ctx, pkgtestutil.Photo("alice"))
	s.Require().NoError(err)
	s.True(result.Claim.Recognized)
	s.True(result.Enrolled)

	result, err = s.service.Recognize(s.ctx, pkgtestutil.Photo("stranger"))
	s.Require().NoError(err)
	s.False(result.Claim.Recognized)
	s.False(result.Enrolled)
}

// TestStoreErrorsMapToInternal verifies infrastructure failures do not leak as
// enrollment outcomes.
func (s *ServiceSuite) TestStoreErrorsMapToInternal() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	resolver := facemocks.NewMockResolver(ctrl)
	svc := New(mockStore, resolver)

	s.Run("lookup failure aborts before the face service", func() {
		mockStore.EXPECT().Get(gomock.Any(), "0xc1").Return(nil, errors.New("redis timeout"))
		_, err := svc.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("lost insert race is already enrolled", func() {
		mockStore.EXPECT().Get(gomock.Any(), "0xc1").Return(nil, store.ErrNotFound)
		resolver.EXPECT().EnrollTemplate(gomock.Any(), "0xc1", gomock.Any()).Return("tpl-orphan", nil)
		mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(store.ErrAlreadyEnrolled)

		_, err := svc.Enroll(s.ctx, "0xc1", pkgtestutil.Photo("alice"))
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyEnrolled))
	})

	s.Run("empty template reference is an upstream failure", func() {
		mockStore.EXPECT().Get(gomock.Any(), "0xc2").Return(nil, store.ErrNotFound)
		resolver.EXPECT().EnrollTemplate(gomock.Any(), "0xc2", gomock.Any()).Return("", nil)
		mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Enroll(s.ctx, "0xc2", pkgtestutil.Photo("bob"))
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})

	s.Run("list failure", func() {
		mockStore.EXPECT().Keys(gomock.Any()).Return(nil, errors.New("redis timeout"))
		_, err := svc.ListEnrolled(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("clear failure", func() {
		mockStore.EXPECT().Clear(gomock.Any()).Return(errors.New("redis timeout"))
		s.True(dErrors.HasCode(svc.ClearAll(s.ctx), dErrors.CodeInternal))
	})
}
