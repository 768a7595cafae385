package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/cinedex/internal/config"
	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/enrich"
	"github.com/your-org/cinedex/internal/indexer"
	"github.com/your-org/cinedex/internal/media"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/queue"
	"github.com/your-org/cinedex/internal/scanner"
	"github.com/your-org/cinedex/internal/segment"
	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	// Single-instance guard: a second indexer against the same archive
	// would double-process jobs.
	lock := flock.New(cfg.Indexer.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		slog.Error("acquire indexer lock", "path", cfg.Indexer.LockFile, "error", err)
		os.Exit(1)
	}
	if !locked {
		slog.Error("another indexer instance is already running", "path", cfg.Indexer.LockFile)
		os.Exit(1)
	}
	defer func() { _ = lock.Unlock() }()

	slog.Info("starting cinedex indexer",
		"batch_size", cfg.Indexer.BatchSize,
		"stuck_job_timeout", cfg.Indexer.StuckJobTimeout.String(),
	)

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(context.Background()); err != nil {
		slog.Error("init schema", "error", err)
		os.Exit(1)
	}

	posters, err := storage.NewPosterStore(context.Background(), *cfg)
	if err != nil {
		slog.Error("open poster store", "error", err)
		os.Exit(1)
	}

	settingsStore := settings.New(db)

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	inference := embed.NewClient(cfg.Inference)
	prober := media.NewProber(cfg.Media.FFprobePath)
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath)

	segmenter := segment.New(db, settingsStore, ffmpeg, posters)
	worker := enrich.NewWorker(db, settingsStore, inference, prober, ffmpeg, segmenter, posters, producer, cfg.Indexer.BatchSize)
	scan := scanner.New(db, settingsStore, producer)

	ix := indexer.New(db, settingsStore, scan, worker, producer, cfg.Indexer.StuckJobTimeout)

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		addr := fmt.Sprintf(":%d", cfg.Indexer.MetricsPort)
		slog.Info("indexer metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- ix.Run(ctx) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down indexer...")
		cancel()
		<-runErr
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("indexer run failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("indexer stopped")
}
