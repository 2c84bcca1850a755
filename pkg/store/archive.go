package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/relab-tools/faultline/pkg/blob"
)

// ArchiveConfig holds configuration for the ArchiveWorker.
type ArchiveConfig struct {
	Enabled       bool          `json:"enabled"`
	Retention     time.Duration `json:"retention"`
	BatchSize     int           `json:"batch_size"`
	CheckInterval time.Duration `json:"check_interval"`
}

// ArchiveWorker moves runs past their retention window out of SQLite and
// into blob storage as gzipped JSON lines.
type ArchiveWorker struct {
	store     *Store
	blobStore blob.BlobStore
	config    ArchiveConfig
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(store *Store, blobStore blob.BlobStore, config ArchiveConfig) *ArchiveWorker {
	return &ArchiveWorker{
		store:     store,
		blobStore: blobStore,
		config:    config,
	}
}

// Run starts the archive worker loop.
func (w *ArchiveWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				log.Printf("archive worker error: %v", err)
			}
		}
	}
}

// ProcessBatch archives one batch of expired runs. A batch smaller than
// BatchSize means the backlog is drained.
func (w *ArchiveWorker) ProcessBatch(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.config.Retention)

	runs, err := w.store.RunsBefore(ctx, cutoff, w.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to read candidate runs: %w", err)
	}
	if len(runs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)
	encoder := json.NewEncoder(gzWriter)

	for _, run := range runs {
		if err := encoder.Encode(run); err != nil {
			gzWriter.Close()
			return fmt.Errorf("failed to encode run %s: %w", run.RunID, err)
		}
	}

	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}

	// Key: runs/YYYY/MM/DD/first_last_uuid.jsonl.gz
	first := runs[0]
	last := runs[len(runs)-1]
	year, month, day := first.CreatedAt.Date()
	key := fmt.Sprintf("runs/%04d/%02d/%02d/%d_%d_%s.jsonl.gz",
		year, month, day,
		first.CreatedAt.Unix(),
		last.CreatedAt.Unix(),
		uuid.New().String(),
	)

	if err := w.blobStore.Put(ctx, key, &buf); err != nil {
		return fmt.Errorf("failed to upload archive to blob store: %w", err)
	}

	runIDs := make([]string, len(runs))
	for i, run := range runs {
		runIDs[i] = run.RunID
	}

	if err := w.store.DeleteRuns(ctx, runIDs); err != nil {
		return fmt.Errorf("failed to delete archived runs: %w", err)
	}

	log.Printf("archived %d runs to %s", len(runs), key)
	return nil
}
