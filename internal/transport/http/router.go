package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"facepay/pkg/platform/httputil"
	"facepay/pkg/platform/middleware/admin"
	"facepay/pkg/platform/middleware/metadata"
	"facepay/pkg/platform/middleware/request"
)

// formOverhead is the body allowance for multipart framing and form fields
// on top of the photo itself.
const formOverhead = 1 << 20

// Module is a bounded context that contributes routes.
type Module interface {
	Register(r chi.Router)
}

// AdminModule is a Module with routes that require an admin token.
type AdminModule interface {
	Module
	RegisterAdmin(r chi.Router)
}

// Config holds the cross-cutting settings of the router.
type Config struct {
	Logger         *slog.Logger
	MaxPhotoBytes  int64
	RequestTimeout time.Duration
	TrustedProxies []netip.Prefix
	// TerminalFn summarises a merchant terminal's User-Agent. Optional.
	TerminalFn func(userAgent string) string
	// AdminValidator authenticates admin routes. Nil disables them (503).
	AdminValidator admin.TokenValidator
	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Registerer receives the endpoint latency histogram.
	Registerer prometheus.Registerer
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg Config, modules ...Module) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(metadata.NewMiddleware(&metadata.Config{
		TrustedProxies: cfg.TrustedProxies,
		TerminalFn:     cfg.TerminalFn,
	}).Handler)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(request.NewMetrics(cfg.Registerer), routePattern))
	if cfg.MaxPhotoBytes > 0 {
		r.Use(request.BodyLimit(cfg.MaxPhotoBytes + formOverhead))
	}

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(request.Timeout(cfg.RequestTimeout))
		}
		r.Get("/api", handleInfo)
		for _, m := range modules {
			m.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdmin(cfg.AdminValidator, logger))
		for _, m := range modules {
			if am, ok := m.(AdminModule); ok {
				am.RegisterAdmin(r)
			}
		}
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

type infoResponse struct {
	Name      string            `json:"name"`
	Endpoints map[string]string `json:"endpoints"`
}

func handleInfo(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, infoResponse{
		Name: "facepay",
		Endpoints: map[string]string{
			"face":    "/api/face/{enroll,recognize,check-enrollment,enrolled,clear}",
			"payment": "/api/payment/{face-pay,tx/{hash},partial}",
			"wallet":  "/api/wallet/{create,balance,faucet,mint,status}",
			"health":  "/health, /health/live, /health/ready",
			"metrics": "/metrics",
		},
	})
}
