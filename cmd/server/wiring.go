package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"facepay/internal/admintoken"
	"facepay/internal/device"
	enrollmenthandler "facepay/internal/enrollment/handler"
	enrollmentmetrics "facepay/internal/enrollment/metrics"
	enrollmentservice "facepay/internal/enrollment/service"
	enrollmentstore "facepay/internal/enrollment/store"
	"facepay/internal/face"
	"facepay/internal/face/luxand"
	facememory "facepay/internal/face/memory"
	"facepay/internal/ledger"
	"facepay/internal/ledger/aptos"
	ledgermemory "facepay/internal/ledger/memory"
	paymenthandler "facepay/internal/payment/handler"
	"facepay/internal/payment/guard"
	"facepay/internal/payment/journal"
	paymentmetrics "facepay/internal/payment/metrics"
	paymentservice "facepay/internal/payment/service"
	"facepay/internal/platform/amqp"
	"facepay/internal/platform/config"
	"facepay/internal/platform/database"
	"facepay/internal/platform/health"
	"facepay/internal/platform/kafka/producer"
	"facepay/internal/platform/metrics"
	"facepay/internal/platform/redis"
	"facepay/internal/status"
	httptransport "facepay/internal/transport/http"
	wallethandler "facepay/internal/wallet/handler"
	walletservice "facepay/internal/wallet/service"
	"facepay/migrations"
	"facepay/pkg/platform/circuit"
	"facepay/pkg/platform/middleware/admin"
	"facepay/pkg/platform/tracer"
)

const (
	guardSweepInterval = time.Minute
	poolStatsInterval  = 15 * time.Second
)

// ledgerClient is what the server needs from a ledger implementation.
type ledgerClient interface {
	ledger.Ledger
	ledger.Wallets
	ledger.StatusReporter
	Health(ctx context.Context) error
	ExplorerURL(hash string) string
}

type application struct {
	router  http.Handler
	workers []func(ctx context.Context) error
	closers []func() error
	log     *slog.Logger
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
}

// build wires every dependency. Connections opened before a failure are
// closed again.
func build(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *application, err error) {
	app := &application{log: log}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	upstreamMetrics := metrics.NewUpstream(reg)
	tr := tracer.NewOTel()

	resolver := buildResolver(cfg.Face, upstreamMetrics, tr, log)
	lc := buildLedger(cfg.Ledger, upstreamMetrics, tr, log)
	registry := status.New(lc)
	healthHandler := health.New(cfg.Server.Environment, func() any { return registry.Snapshot() })
	healthHandler.RegisterCheck("ledger", lc.Health)

	var (
		store        enrollmentservice.Store = enrollmentstore.New()
		requestGuard paymentservice.RequestGuard
	)
	if cfg.Enrollment.Store == "redis" {
		rc, err := redis.New(ctx, redis.DefaultConfig(cfg.Enrollment.RedisURL), reg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.closers = append(app.closers, rc.Close)
		app.workers = append(app.workers, func(ctx context.Context) error {
			rc.RunPoolStats(ctx, poolStatsInterval)
			return nil
		})
		healthHandler.RegisterCheck("redis", rc.Health)
		store = enrollmentstore.NewRedis(rc, enrollmentstore.DefaultRedisKey)
		requestGuard = guard.NewRedis(rc, cfg.Payment.RequestIDTTL)
	} else {
		mg := guard.NewMemory(cfg.Payment.RequestIDTTL)
		app.workers = append(app.workers, func(ctx context.Context) error {
			return mg.Run(ctx, guardSweepInterval)
		})
		requestGuard = mg
	}

	recorders, lister, err := buildJournal(ctx, cfg.Journal, app, healthHandler, log)
	if err != nil {
		return nil, err
	}

	enrollment := enrollmentservice.New(store, resolver,
		enrollmentservice.WithMetrics(enrollmentmetrics.New(reg)),
		enrollmentservice.WithLogger(log),
	)
	payments := paymentservice.New(resolver, lc,
		paymentservice.WithGuard(requestGuard),
		paymentservice.WithRecorder(recorders),
		paymentservice.WithLister(lister),
		paymentservice.WithMetrics(paymentmetrics.New(reg)),
		paymentservice.WithTracer(tr),
		paymentservice.WithLogger(log),
	)
	wallets := walletservice.New(lc, lc, registry, log)

	var adminValidator admin.TokenValidator
	if tokens := admintoken.NewService(cfg.Admin.JWTSigningKey, cfg.Admin.TokenTTL); tokens != nil {
		adminValidator = tokens
	} else {
		log.Warn("ADMIN_JWT_SIGNING_KEY not set; admin routes are disabled")
	}

	proxies, err := parsePrefixes(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	app.router = httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		MaxPhotoBytes:  cfg.Server.MaxPhotoBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustedProxies: proxies,
		TerminalFn:     device.Describe,
		AdminValidator: adminValidator,
		Gatherer:       reg,
		Registerer:     reg,
	},
		healthHandler,
		enrollmenthandler.New(enrollment, log, cfg.Server.MaxPhotoBytes),
		paymenthandler.New(payments, registry, lc, log, cfg.Server.MaxPhotoBytes),
		wallethandler.New(wallets, lc.ExplorerURL, log),
	)

	snap := registry.Snapshot()
	log.Info("ledger status",
		"network", snap.Network,
		"ledger_client_ready", snap.LedgerClientReady,
		"reward_contract_configured", snap.RewardContractConfigured,
		"admin_credential_configured", snap.AdminCredentialConfigured,
	)
	return app, nil
}

func buildResolver(cfg config.Face, m *metrics.Upstream, tr tracer.Tracer, log *slog.Logger) face.Resolver {
	if cfg.Mode == "memory" {
		log.Warn("using in-memory face resolver; not for production")
		return facememory.New()
	}
	return luxand.New(luxand.Config{
		BaseURL: cfg.LuxandBaseURL,
		Token:   cfg.LuxandToken,
		Timeout: cfg.Timeout,
	},
		luxand.WithObserver(m),
		luxand.WithBreaker(circuit.New("luxand", circuit.WithStateListener(m.BreakerListener()))),
		luxand.WithTracer(tr),
		luxand.WithLogger(log),
	)
}

func buildLedger(cfg config.Ledger, m *metrics.Upstream, tr tracer.Tracer, log *slog.Logger) ledgerClient {
	if cfg.Mode == "memory" {
		log.Warn("using in-memory ledger; not for production")
		return ledgermemory.New()
	}
	return aptos.New(aptos.Config{
		Network:         cfg.Network,
		NodeURL:         cfg.NodeURL,
		FaucetURL:       cfg.FaucetURL,
		ExplorerURL:     cfg.ExplorerURL,
		AdminCredential: ledger.NewCredential(cfg.AdminPrivateKey),
		PackageAddress:  cfg.PackageAddress,
		Timeout:         cfg.Timeout,
		ConfirmTimeout:  cfg.ConfirmTimeout,
	},
		aptos.WithObserver(m),
		aptos.WithBreaker(circuit.New("aptos", circuit.WithStateListener(m.BreakerListener()))),
		aptos.WithTracer(tr),
		aptos.WithLogger(log),
	)
}

// buildJournal assembles the outcome sinks. The Postgres journal doubles as
// the lister for reconciliation; without a database an in-process journal
// serves that role.
func buildJournal(ctx context.Context, cfg config.Journal, app *application, h *health.Handler, log *slog.Logger) (journal.Fanout, paymentservice.OutcomeLister, error) {
	var (
		sinks  journal.Fanout
		lister paymentservice.OutcomeLister
	)

	pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if pool != nil {
		app.closers = append(app.closers, pool.Close)
		h.RegisterCheck("database", pool.Health)
		if err := pool.Migrate(ctx, migrations.FS); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		pg := journal.NewPostgres(pool.DB())
		sinks = append(sinks, pg)
		lister = pg
	} else {
		log.Warn("DATABASE_URL not set; outcomes are journaled in memory only")
		mem := journal.NewMemory()
		sinks = append(sinks, mem)
		lister = mem
	}

	switch cfg.Sink {
	case "kafka":
		p, err := producer.New(producer.DefaultConfig(cfg.KafkaBrokers), log)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, p.Close)
		h.RegisterCheck("kafka", p.Health)
		sinks = append(sinks, journal.NewKafka(p, cfg.KafkaTopic))
	case "amqp":
		p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp publisher: %w", err)
		}
		app.closers = append(app.closers, p.Close)
		h.RegisterCheck("amqp", p.Health)
		sinks = append(sinks, journal.NewAMQP(p))
	}
	return sinks, lister, nil
}

func parsePrefixes(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}
