package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"rss_ingestor/internal/batchlog"
	"rss_ingestor/internal/config"
	"rss_ingestor/internal/feedparser"
	"rss_ingestor/internal/fetcher"
	"rss_ingestor/internal/publisher"
	"rss_ingestor/internal/scheduler"
	"rss_ingestor/internal/service"
	"rss_ingestor/internal/storage/postgres"
	"rss_ingestor/internal/tagger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single ingest batch and exit")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if err := postgres.RunMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	// Initialize RabbitMQ publisher; an empty URL disables publishing
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	} else {
		logger.Info("rabbitmq publishing disabled")
	}

	// Initialize stores
	feedStore := postgres.NewFeedStore(db)
	postStore := postgres.NewPostStore(db)
	keywordStore := postgres.NewKeywordStore(db)
	batchLogStore := postgres.NewBatchLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	recorder := batchlog.NewRecorder(batchLogStore, logger)

	fetchClient := fetcher.New(fetcher.Config{
		Timeout:        cfg.Ingest.Fetch.Timeout,
		MaxAttempts:    cfg.Ingest.Fetch.MaxAttempts,
		InitialBackoff: cfg.Ingest.Fetch.InitialBackoff,
		MaxBackoff:     cfg.Ingest.Fetch.MaxBackoff,
		UserAgent:      cfg.Ingest.UserAgent,
	}, recorder, logger)

	ingestService := service.NewIngestService(
		feedStore,
		postStore,
		keywordStore,
		fetchClient,
		feedparser.New(logger),
		tagger.New(),
		txManager,
		pub,
		recorder,
		logger,
		cfg.Ingest,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting rss ingestor",
		"interval", cfg.Ingest.Interval,
		"workers", cfg.Ingest.WorkerCount,
		"region", cfg.Ingest.Region,
	)

	if *once {
		if _, err := ingestService.Ingest(ctx); err != nil {
			logger.Error("ingest failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.NewScheduler(ingestService, cfg.Ingest.Interval, logger)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
