package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/cinedex/internal/api"
	"github.com/your-org/cinedex/internal/api/ws"
	"github.com/your-org/cinedex/internal/config"
	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/queue"
	"github.com/your-org/cinedex/internal/search"
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

	slog.Info("starting cinedex API service", "port", cfg.Server.Port, "demo_mode", cfg.Server.DemoMode)

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
	inference := embed.NewClient(cfg.Inference)

	engine, err := search.NewEngine(db, inference, settingsStore)
	if err != nil {
		slog.Error("create search engine", "error", err)
		os.Exit(1)
	}

	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The event feed is best-effort: with NATS down the API still
	// serves search, browsing and admin.
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Warn("connect event consumer", "error", err)
	} else {
		defer consumer.Close()
		err = consumer.ConsumeEvents(ctx, "cinedex-api", func(ctx context.Context, msg jetstream.Msg) error {
			hub.Broadcast(msg.Data())
			return nil
		})
		if err != nil {
			slog.Warn("start event consumer", "error", err)
		}
	}

	router := api.NewRouter(api.RouterConfig{
		DB:        db,
		Posters:   posters,
		Settings:  settingsStore,
		Inference: inference,
		Engine:    engine,
		Hub:       hub,
		DemoMode:  cfg.Server.DemoMode,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
