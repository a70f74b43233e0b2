package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aryankodi12/AmazonWebScraper/internal/config"
	"github.com/aryankodi12/AmazonWebScraper/internal/fetch"
	"github.com/aryankodi12/AmazonWebScraper/internal/log"
	"github.com/aryankodi12/AmazonWebScraper/internal/notify"
	"github.com/aryankodi12/AmazonWebScraper/internal/repository"
	"github.com/aryankodi12/AmazonWebScraper/internal/scheduler"
	"github.com/aryankodi12/AmazonWebScraper/internal/service"
	"github.com/aryankodi12/AmazonWebScraper/internal/storage/db"
	"github.com/aryankodi12/AmazonWebScraper/internal/storage/mq"
	"github.com/aryankodi12/AmazonWebScraper/internal/telemetry"
	"github.com/aryankodi12/AmazonWebScraper/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running scheduler application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log       config.Log
		Postgres  config.Postgres
		Scheduler config.Scheduler
		Fetcher   config.Fetcher
		Kafka     config.Kafka
		Otel      config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	productRepository := repository.NewProductRepository(dbClient)
	fetcher := fetch.NewAmazonFetcher(cfg.Fetcher)
	notifier := notify.NewKafkaNotifier(kafkaProducer)

	productService := service.NewProductService(logger, productRepository, fetcher, notifier)

	interruptChan := cmdutil.InterruptChan()

	svc := scheduler.NewService(cfg.Scheduler, logger, productRepository, productService)
	cleanup := svc.Run(ctx)
	logger.InfoContext(ctx, "scheduler service started")

	<-interruptChan

	logger.InfoContext(ctx, "scheduler service is shutting down")
	cleanup()

	logger.InfoContext(ctx, "scheduler service is stopped")

	return nil
}
