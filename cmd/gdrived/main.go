package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/TRIBUI106/czGDriveDownloader/internal/batch"
	"github.com/TRIBUI106/czGDriveDownloader/internal/config"
	"github.com/TRIBUI106/czGDriveDownloader/internal/drive"
	"github.com/TRIBUI106/czGDriveDownloader/internal/expand"
	"github.com/TRIBUI106/czGDriveDownloader/internal/logging"
	"github.com/TRIBUI106/czGDriveDownloader/internal/metrics"
	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
	"github.com/TRIBUI106/czGDriveDownloader/internal/reconciler"
	"github.com/TRIBUI106/czGDriveDownloader/internal/repo"
	"github.com/TRIBUI106/czGDriveDownloader/internal/resolve"
	"github.com/TRIBUI106/czGDriveDownloader/internal/router"
	"github.com/TRIBUI106/czGDriveDownloader/internal/scrape"
	"github.com/TRIBUI106/czGDriveDownloader/internal/service"
	"github.com/TRIBUI106/czGDriveDownloader/internal/transfer"
)

const (
	shutdownTimeout = 30 * time.Second
	// reconcilerBuffer sizes the reconciler's event subscription. The
	// reconciler only does repo writes per event, so it rarely falls behind.
	reconcilerBuffer = 256
)

func main() {
	godotenv.Load()

	logger := logging.New(logging.FromEnv())
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("GDRIVE_CONFIG"))
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}
	logger.Info("config loaded",
		"download_dir", cfg.DownloadDir,
		"worker_limit", cfg.WorkerLimit,
		"chunk_size", cfg.ChunkSize,
		"max_depth", cfg.MaxDepth,
		"dedup", cfg.Deduplicate,
		"collision_policy", cfg.CollisionPolicy)

	metrics.Register()

	client, err := drive.NewClientFromEnv()
	if err != nil {
		logger.Error("drive client init failed", "error", err)
		os.Exit(1)
	}

	taskRepo, closeRepo, err := openRepo(logger)
	if err != nil {
		logger.Error("task repository init failed", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	bus := progress.NewBus()
	events, cancelEvents := bus.Subscribe(reconcilerBuffer)
	rec := reconciler.New(logger, taskRepo, events)
	rec.Run()

	parser := scrape.NewHTMLParser()
	resolver := resolve.New(logger, client, parser)
	expander := expand.New(logger, client, parser, resolver)
	engine := transfer.New(logger, client, bus, cfg.DownloadDir, cfg.TransferOptions())
	runner := batch.New(logger, resolver, expander, engine, taskRepo, bus, batch.Options{
		WorkerLimit: cfg.WorkerLimit,
		MaxDepth:    cfg.MaxDepth,
		Deduplicate: cfg.Deduplicate,
	})
	svc := service.NewBatch(logger, taskRepo, runner)

	server := &http.Server{
		Addr:    listenAddr(),
		Handler: router.New(logger, svc, bus, client),

		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Event streams hijack the connection, so this only bounds the
		// plain JSON endpoints.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	// The server stops taking requests before the event pipeline goes away.
	rec.Stop()
	cancelEvents()
	logger.Info("shutdown complete")
}

func listenAddr() string {
	if addr := os.Getenv("GDRIVE_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func openRepo(logger *slog.Logger) (repo.TaskRepo, func(), error) {
	if os.Getenv("REPO_DRIVER") == "postgres" {
		pg, err := repo.NewPostgresRepoFromEnv()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("task repository ready", "driver", "postgres")
		return pg, func() { _ = pg.Close() }, nil
	}
	logger.Info("task repository ready", "driver", "inmem")
	return repo.NewInMemoryTaskRepo(), func() {}, nil
}
