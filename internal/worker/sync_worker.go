// Package worker exports persisted model snapshots to an external
// sheet whenever a sync message arrives.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expenses/internal/amqp"
	applog "expenses/internal/log"
	"expenses/internal/sheets"
	"expenses/internal/storage"
)

// SnapshotLoader reads the persisted model snapshot.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (storage.Snapshot, error)
}

// SyncWorker moves snapshots from storage to the sheet export. It
// tracks the last exported revision so duplicate or reordered messages
// do not cause redundant exports.
//
// The consume loop and the periodic tick run on separate goroutines,
// so the mutex serializes exports and guards the revision gate.
type SyncWorker struct {
	loader SnapshotLoader
	writer sheets.SnapshotWriter

	mu           sync.Mutex
	lastExported int64
}

func NewSyncWorker(loader SnapshotLoader, writer sheets.SnapshotWriter) *SyncWorker {
	return &SyncWorker{
		loader: loader,
		writer: writer,
	}
}

// HandleSyncMessage processes a single snapshot sync message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SnapshotSyncMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if msg.Revision <= w.lastExported {
		slog.DebugContext(ctx, "Skipping stale sync message",
			applog.FieldRevision, msg.Revision,
			"last_exported", w.lastExported)
		return nil
	}
	return w.export(ctx)
}

// Resync exports the current snapshot regardless of revision. Used at
// startup and on the periodic tick to repair any missed messages.
func (w *SyncWorker) Resync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.export(ctx)
}

// export runs with w.mu held.
func (w *SyncWorker) export(ctx context.Context) error {
	snap, err := w.loader.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	if err := w.writer.WriteSnapshot(ctx, snap.Transactions, snap.MatchedIndices); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	w.lastExported = snap.Revision
	slog.InfoContext(ctx, "Snapshot exported",
		applog.FieldRevision, snap.Revision,
		applog.FieldTxCount, len(snap.Transactions),
		applog.FieldMatchCount, len(snap.MatchedIndices))
	return nil
}

// RunPeriodic re-exports the snapshot every interval until ctx ends.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
			}
		}
	}
}
