package httptransport

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facepay/pkg/platform/httputil"
	"facepay/pkg/platform/middleware/admin"
	"facepay/pkg/platform/middleware/request"
	"facepay/pkg/requestcontext"
)

type stubModule struct{}

func (stubModule) Register(r chi.Router) {
	r.Get("/api/stub", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"request_id": requestcontext.RequestID(r.Context()),
			"terminal":   requestcontext.Terminal(r.Context()),
		})
	})
	r.Get("/api/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

func (stubModule) RegisterAdmin(r chi.Router) {
	r.Get("/api/stub/admin", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"admin": requestcontext.AdminSubject(r.Context())})
	})
}

func newTestRouter(validator admin.TokenValidator) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxPhotoBytes:  1024,
		TerminalFn:     func(string) string { return "kiosk" },
		AdminValidator: validator,
		Gatherer:       reg,
		Registerer:     reg,
	}, stubModule{})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter(t *testing.T) {
	validator := admin.ValidatorFunc(func(token string) (string, error) {
		if token != "good" {
			return "", errors.New("bad token")
		}
		return "ops", nil
	})
	router := newTestRouter(validator)

	t.Run("public routes carry request metadata", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stub", nil)
		req.Header.Set(request.HeaderRequestID, "abc-1")
		req.Header.Set("User-Agent", "Mozilla/5.0")
		w := serve(router, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc-1", w.Header().Get(request.HeaderRequestID))
		assert.JSONEq(t, `{"request_id":"abc-1","terminal":"kiosk"}`, w.Body.String())
	})

	t.Run("admin routes require a token", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api/stub/admin", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/stub/admin", nil)
		req.Header.Set("Authorization", "Bearer good")
		w = serve(router, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"admin":"ops"}`, w.Body.String())
	})

	t.Run("admin routes disabled without validator", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stub/admin", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := serve(newTestRouter(nil), req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		body := strings.NewReader(strings.Repeat("x", 1024+formOverhead+1))
		w := serve(router, httptest.NewRequest(http.MethodPost, "/api/stub", body))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("panics become 500", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("info and metrics", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/api/payment/")

		w = serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "facepay_endpoint_latency_seconds")
	})
}
