// Command outcome-projector consumes payment outcome events from Kafka and
// writes them into the Postgres journal, so a reconciliation store can be
// fed by servers that only publish.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"facepay/internal/payment/journal"
	"facepay/internal/payment/projector"
	"facepay/internal/platform/config"
	"facepay/internal/platform/database"
	"facepay/internal/platform/kafka/consumer"
	"facepay/internal/platform/logger"
	"facepay/migrations"
)

const consumerGroup = "facepay-outcome-projector"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Journal, log); err != nil {
		log.Error("projector exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("projector stopped")
}

func run(ctx context.Context, cfg config.Journal, log *slog.Logger) error {
	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if pool == nil {
		return errors.New("DATABASE_URL is required")
	}
	defer pool.Close()
	if err := pool.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cons, err := consumer.New(consumer.Config{
		Brokers: strings.Join(cfg.KafkaBrokers, ","),
		GroupID: consumerGroup,
		Topics:  []string{cfg.KafkaTopic},
	}, projector.New(journal.NewPostgres(pool.DB()), log), log)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}

	log.Info("starting outcome projector",
		"topic", cfg.KafkaTopic,
		"group", consumerGroup,
	)
	return cons.Run(ctx)
}
