package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/leowmjw/go-timeline-bands/pkg/config"
	"github.com/leowmjw/go-timeline-bands/pkg/http"
	"github.com/leowmjw/go-timeline-bands/pkg/store"
	"github.com/leowmjw/go-timeline-bands/pkg/temporal"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to YAML configuration file")
		httpAddr     = flag.String("http-addr", "", "HTTP server address")
		temporalAddr = flag.String("temporal-addr", "", "Temporal server address")
		namespace    = flag.String("namespace", "", "Temporal namespace")
		taskQueue    = flag.String("task-queue", "", "Temporal task queue")
		storeDriver  = flag.String("store", "", "Event store driver (memory, sqlite)")
		storePath    = flag.String("store-path", "", "SQLite database path")
		logLevel     = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags win over the file and the environment
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.HTTP.Addr, *httpAddr)
	override(&cfg.Temporal.Addr, *temporalAddr)
	override(&cfg.Temporal.Namespace, *namespace)
	override(&cfg.Temporal.TaskQueue, *taskQueue)
	override(&cfg.Store.Driver, *storeDriver)
	override(&cfg.Store.Path, *storePath)
	override(&cfg.Log.Level, *logLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	logger.Info("Starting Timeline Bands Service",
		"http_addr", cfg.HTTP.Addr,
		"temporal_addr", cfg.Temporal.Addr,
		"namespace", cfg.Temporal.Namespace,
		"task_queue", cfg.Temporal.TaskQueue,
		"store", cfg.Store.Driver,
	)

	// Create event storage
	var storage store.Store
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		sqliteStore, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			logger.Error("Failed to open SQLite store", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		storage = sqliteStore
	default:
		storage = store.NewMemoryStore()
	}

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Addr,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	// Create and start Temporal worker
	activities := temporal.NewActivitiesImpl(logger, storage)
	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
	temporal.Register(w, activities)

	logger.Info("Starting Temporal worker", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Start(); err != nil {
		logger.Error("Temporal worker failed", "error", err)
		os.Exit(1)
	}
	defer w.Stop()

	// Create and start HTTP server
	server := http.NewServer(logger, temporalClient, http.Options{
		Addr:         cfg.HTTP.Addr,
		TaskQueue:    cfg.Temporal.TaskQueue,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Received shutdown signal, stopping services...")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
	case err := <-serverDone:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
	}

	logger.Info("Timeline Bands Service stopped")
}
