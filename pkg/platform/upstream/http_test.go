package upstream_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"facepay/pkg/platform/circuit"
	"facepay/pkg/platform/upstream"
	"facepay/pkg/platform/upstream/mocks"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newRequest(t *testing.T) *http.Request {
	req, err := http.NewRequest(http.MethodGet, "http://upstream.test/ping", nil)
	require.NoError(t, err)
	return req
}

func TestCallerDo(t *testing.T) {
	t.Run("returns body on 2xx and observes ok", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		doer := mocks.NewMockHTTPDoer(ctrl)
		observer := mocks.NewMockObserver(ctrl)

		doer.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, `{"ok":true}`), nil)
		observer.EXPECT().ObserveCall("luxand", "search", "ok", gomock.Any())

		caller := upstream.NewCaller("luxand", doer, time.Second, upstream.WithObserver(observer))
		resp, err := caller.Do(context.Background(), "search", newRequest(t))
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, string(resp.Body))
	})

	t.Run("classifies error status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		doer := mocks.NewMockHTTPDoer(ctrl)
		doer.EXPECT().Do(gomock.Any()).Return(response(http.StatusUnauthorized, `{"status":"failure"}`), nil)

		caller := upstream.NewCaller("luxand", doer, time.Second)
		_, err := caller.Do(context.Background(), "search", newRequest(t))
		require.Error(t, err)
		assert.Equal(t, upstream.Authentication, upstream.CategoryOf(err))

		var ue *upstream.Error
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
	})

	t.Run("transport failure is an outage", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		doer := mocks.NewMockHTTPDoer(ctrl)
		doer.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection refused"))

		caller := upstream.NewCaller("aptos", doer, time.Second)
		_, err := caller.Do(context.Background(), "submit", newRequest(t))
		assert.Equal(t, upstream.Outage, upstream.CategoryOf(err))
		assert.True(t, upstream.IsRetryable(err))
	})
}

func TestCallerBreaker(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockHTTPDoer(ctrl)
	breaker := circuit.New("aptos", circuit.WithFailureThreshold(2))

	doer.EXPECT().Do(gomock.Any()).Times(2).DoAndReturn(func(*http.Request) (*http.Response, error) {
		return response(http.StatusServiceUnavailable, "down"), nil
	})

	caller := upstream.NewCaller("aptos", doer, time.Second, upstream.WithBreaker(breaker))
	for range 2 {
		_, err := caller.Do(context.Background(), "submit", newRequest(t))
		require.Equal(t, upstream.Outage, upstream.CategoryOf(err))
	}

	_, err := caller.Do(context.Background(), "submit", newRequest(t))
	assert.Equal(t, upstream.CircuitOpen, upstream.CategoryOf(err))
	assert.ErrorIs(t, err, circuit.ErrOpen)
}

func TestCallerClientErrorsKeepBreakerClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockHTTPDoer(ctrl)
	breaker := circuit.New("luxand", circuit.WithFailureThreshold(1))

	doer.EXPECT().Do(gomock.Any()).Times(3).DoAndReturn(func(*http.Request) (*http.Response, error) {
		return response(http.StatusBadRequest, "bad photo"), nil
	})

	caller := upstream.NewCaller("luxand", doer, time.Second, upstream.WithBreaker(breaker))
	for range 3 {
		_, err := caller.Do(context.Background(), "enroll", newRequest(t))
		assert.Equal(t, upstream.Rejected, upstream.CategoryOf(err))
	}
	assert.Equal(t, circuit.StateClosed, breaker.State())
}
