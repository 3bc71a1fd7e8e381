package request

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facepay/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	capture := func(captured *string) http.Handler {
		return RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*captured = requestcontext.RequestID(r.Context())
		}))
	}

	t.Run("generates UUID when no header provided", func(t *testing.T) {
		var id string
		w := httptest.NewRecorder()
		capture(&id).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))

		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Header().Get(HeaderRequestID))
	})

	t.Run("keeps a well-formed terminal request ID", func(t *testing.T) {
		var id string
		req := httptest.NewRequest(http.MethodPost, "/api/payment/face-pay", nil)
		req.Header.Set(HeaderRequestID, "pos-17.txn_0042")
		w := httptest.NewRecorder()
		capture(&id).ServeHTTP(w, req)

		assert.Equal(t, "pos-17.txn_0042", id)
		assert.Equal(t, "pos-17.txn_0042", w.Header().Get(HeaderRequestID))
	})

	t.Run("replaces malformed IDs", func(t *testing.T) {
		for _, bad := range []string{
			"has space",
			"line\nbreak",
			`quote"d`,
			strings.Repeat("a", MaxRequestIDLength+1),
		} {
			var id string
			req := httptest.NewRequest(http.MethodGet, "/api", nil)
			req.Header.Set(HeaderRequestID, bad)
			capture(&id).ServeHTTP(httptest.NewRecorder(), req)

			assert.NotEqual(t, bad, id)
			assert.Len(t, id, 36)
		}
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("ledger client exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payment/face-pay", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRequestTime(t *testing.T) {
	var first, second time.Time
	handler := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(2 * time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api", nil))

	require.False(t, first.IsZero())
	assert.Equal(t, first, second)
}

func TestLoggerSkipsHealthyProbes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ok := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Empty(t, buf.String())

	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/face/enrolled", nil))
	assert.Contains(t, buf.String(), `"path":"/api/face/enrolled"`)
}
