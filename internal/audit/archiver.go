package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"printbridge/internal/config"
	"printbridge/internal/types"
)

// ArchiveStore is the slice of the audit repository the archiver needs.
type ArchiveStore interface {
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]types.AuditRecord, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// Archiver moves audit records past the retention window out of PostgreSQL
// into gzip-compressed NDJSON files on disk. Records are deleted only after
// their archive file has been fully written and synced, so a crash mid-run
// duplicates records in the archive rather than losing them.
type Archiver struct {
	store  ArchiveStore
	cfg    config.ArchiveConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewArchiver creates an Archiver.
func NewArchiver(store ArchiveStore, cfg config.ArchiveConfig, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run archives expired records in batches until none remain or the context
// is canceled. Returns the total number of records archived.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	cutoff := a.now().UTC().Add(-a.cfg.Retention)

	if err := os.MkdirAll(a.cfg.Dir, 0o750); err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create archive directory", err)
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		batch, err := a.store.ListOlderThan(ctx, cutoff, a.cfg.BatchSize)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		path, err := a.writeArchiveFile(batch)
		if err != nil {
			return total, err
		}

		ids := make([]string, len(batch))
		for i, rec := range batch {
			ids[i] = rec.ID
		}
		deleted, err := a.store.DeleteByIDs(ctx, ids)
		if err != nil {
			return total, err
		}

		total += len(batch)
		a.logger.Info("archived audit batch",
			"file", path,
			"records", len(batch),
			"deleted", deleted,
			"cutoff", cutoff,
		)

		if len(batch) < a.cfg.BatchSize {
			return total, nil
		}
	}
}

// writeArchiveFile writes one batch as gzip NDJSON and returns the file path.
// The file is created exclusively; a name collision means a previous run's
// file from the same instant, which we refuse to overwrite.
func (a *Archiver) writeArchiveFile(batch []types.AuditRecord) (string, error) {
	name := fmt.Sprintf("audit-%s-%s.ndjson.gz",
		a.now().UTC().Format("20060102T150405"),
		batch[0].ID,
	)
	path := filepath.Join(a.cfg.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create archive file", err)
	}

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	for _, rec := range batch {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode archive record", err)
		}
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to finalize archive file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to sync archive file", err)
	}
	if err := f.Close(); err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to close archive file", err)
	}
	return path, nil
}
