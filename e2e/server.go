package e2e

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"facepay/internal/admintoken"
	"facepay/internal/device"
	enrollmenthandler "facepay/internal/enrollment/handler"
	enrollmentservice "facepay/internal/enrollment/service"
	enrollmentstore "facepay/internal/enrollment/store"
	facememory "facepay/internal/face/memory"
	ledgermemory "facepay/internal/ledger/memory"
	"facepay/internal/payment/guard"
	paymenthandler "facepay/internal/payment/handler"
	"facepay/internal/payment/journal"
	paymentmetrics "facepay/internal/payment/metrics"
	paymentservice "facepay/internal/payment/service"
	"facepay/internal/platform/health"
	"facepay/internal/status"
	httptransport "facepay/internal/transport/http"
	wallethandler "facepay/internal/wallet/handler"
	walletservice "facepay/internal/wallet/service"
)

const (
	maxPhotoBytes   = 1 << 20
	adminSigningKey = "e2e-admin-signing-key-with-enough-entropy"
)

// app is the full router over in-memory adapters.
type app struct {
	server  *httptest.Server
	ledger  *ledgermemory.Ledger
	faces   *facememory.Resolver
	journal *journal.Memory
	tokens  *admintoken.Service
}

func newApp() *app {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reg := prometheus.NewRegistry()

	a := &app{
		ledger:  ledgermemory.New(),
		faces:   facememory.New(),
		journal: journal.NewMemory(),
		tokens:  admintoken.NewService(adminSigningKey, time.Hour),
	}
	registry := status.New(a.ledger)
	healthHandler := health.New("e2e", func() any { return registry.Snapshot() })
	healthHandler.RegisterCheck("ledger", a.ledger.Health)

	enrollment := enrollmentservice.New(enrollmentstore.New(), a.faces,
		enrollmentservice.WithLogger(log),
	)
	payments := paymentservice.New(a.faces, a.ledger,
		paymentservice.WithGuard(guard.NewMemory(time.Hour)),
		paymentservice.WithRecorder(a.journal),
		paymentservice.WithLister(a.journal),
		paymentservice.WithMetrics(paymentmetrics.New(reg)),
		paymentservice.WithLogger(log),
	)
	wallets := walletservice.New(a.ledger, a.ledger, registry, log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		MaxPhotoBytes:  maxPhotoBytes,
		RequestTimeout: 10 * time.Second,
		TerminalFn:     device.Describe,
		AdminValidator: a.tokens,
		Gatherer:       reg,
		Registerer:     reg,
	},
		healthHandler,
		enrollmenthandler.New(enrollment, log, maxPhotoBytes),
		paymenthandler.New(payments, registry, a.ledger, log, maxPhotoBytes),
		wallethandler.New(wallets, a.ledger.ExplorerURL, log),
	)
	a.server = httptest.NewServer(router)
	return a
}

func (a *app) adminToken() (string, error) {
	return a.tokens.Issue(context.Background(), "e2e-operator")
}
