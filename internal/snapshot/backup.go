package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Store is the database operation the backupper needs.
type Store interface {
	Snapshot(ctx context.Context, destPath string) error
}

// Backupper writes a timestamped copy of the database into a directory and
// hands it to an Uploader.
type Backupper struct {
	store    Store
	dir      string
	uploader Uploader
	now      func() time.Time
}

// NewBackupper creates a Backupper writing into dir.
func NewBackupper(store Store, dir string, uploader Uploader) *Backupper {
	if uploader == nil {
		uploader = &NoopUploader{}
	}
	return &Backupper{
		store:    store,
		dir:      dir,
		uploader: uploader,
		now:      time.Now,
	}
}

// Backup snapshots the database and uploads the copy.
// Returns the local path of the copy.
func (b *Backupper) Backup(ctx context.Context) (string, error) {
	start := b.now()
	name := fmt.Sprintf("recipes-%s.db", start.UTC().Format("20060102T150405.000000000Z"))
	path := filepath.Join(b.dir, name)

	if err := b.store.Snapshot(ctx, path); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	if err := b.uploader.Upload(ctx, path); err != nil {
		return path, fmt.Errorf("upload %s: %w", path, err)
	}

	slog.Info("backup written",
		"component", "snapshot",
		"action", "backup_complete",
		"path", path,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return path, nil
}
