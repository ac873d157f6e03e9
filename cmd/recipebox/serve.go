package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipebox/internal/api"
	"github.com/hyperengineering/recipebox/internal/dedupe"
	"github.com/hyperengineering/recipebox/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Initialize the database, clean up duplicates and serve the recipe API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// Initialization failure is fatal
	db, err := openStore(cfg)
	if err != nil {
		return err
	}

	var cleanupOpts []dedupe.Option
	if cfg.Cleanup.Backup {
		b, err := newBackupper(cfg, db)
		if err != nil {
			db.Close()
			return err
		}
		cleanupOpts = append(cleanupOpts, dedupe.WithBackup(b))
	}
	remover := dedupe.NewRemover(db, cleanupOpts...)

	// Cleanup failure is not
	if cfg.Cleanup.OnStartup {
		if result := remover.Run(ctx); !result.OK() {
			slog.Warn("startup cleanup failed, continuing",
				"component", "dedupe",
				"error", result.Err,
			)
		}
	}

	if cfg.Auth.APIKey == "" {
		slog.Warn("RECIPEBOX_API_KEY not set, write endpoints will reject all requests")
	}

	handler := api.NewHandler(db, cfg.Auth.APIKey, Version, cleanupOpts...)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	if interval := time.Duration(cfg.Cleanup.Interval); interval > 0 {
		cleanup := worker.NewCleanupWorker(remover, interval)
		startWorker(ctx, &wg, "duplicate-cleanup", cleanup.Run)
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is expected after Shutdown; anything else ends the process.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
