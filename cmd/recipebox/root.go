package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipebox/internal/config"
	"github.com/hyperengineering/recipebox/internal/dedupe"
	"github.com/hyperengineering/recipebox/internal/snapshot"
	"github.com/hyperengineering/recipebox/internal/store"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:          "recipebox",
	Short:        "Recipe database initializer, duplicate cleanup and API server",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (overrides RECIPEBOX_CONFIG_PATH)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig loads configuration and installs the default logger.
// Logs go to the command's stderr so stdout stays machine-readable.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Log))
	slog.Debug("configuration loaded", "env", cfg.Env, "db_path", cfg.Database.Path)
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore initializes the database at the configured path: directory,
// connection, schema. The returned store must be closed by the caller.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	var opts []store.Option
	if cfg.Database.MigrationsDir != "" {
		opts = append(opts, store.WithMigrations(os.DirFS(cfg.Database.MigrationsDir)))
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize database at %s: %w", cfg.Database.Path, err)
	}
	slog.Info("store initialized", "path", s.Path())
	return s, nil
}

// newRemover builds a duplicate remover, wiring a backupper when backups
// are requested.
func newRemover(cfg *config.Config, s *store.SQLiteStore, dryRun, backup bool) (*dedupe.Remover, error) {
	opts := []dedupe.Option{dedupe.WithDryRun(dryRun)}
	if backup {
		b, err := newBackupper(cfg, s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dedupe.WithBackup(b))
	}
	return dedupe.NewRemover(s, opts...), nil
}

func newBackupper(cfg *config.Config, s *store.SQLiteStore) (*snapshot.Backupper, error) {
	uploader, err := snapshot.NewUploader(cfg.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("configure backup upload: %w", err)
	}
	return snapshot.NewBackupper(s, cfg.Snapshot.Dir, uploader), nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
