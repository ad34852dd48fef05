// Package services wires the transaction model to its outbound
// collaborators: SQLite snapshots and AMQP change events.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	applog "expenses/internal/log"
	"expenses/internal/model"
	"expenses/internal/storage"
)

// SnapshotStore persists model snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s storage.Snapshot) error
}

// SyncPublisher announces a new model revision to interested consumers.
type SyncPublisher interface {
	PublishSnapshotSync(ctx context.Context, revision int64, transactionCount int) error
}

// SyncService is a model listener that, on every model update, writes
// the current state to the snapshot store and then publishes a
// lightweight revision message. Storage comes first; publishing is
// best-effort and never blocks the model mutation that triggered it
// beyond its own timeout.
//
// The service runs on the same goroutine as the model mutation (model
// notification is synchronous), so no locking is needed around the
// revision counter.
type SyncService struct {
	store     SnapshotStore
	publisher SyncPublisher
	timeout   time.Duration
	revision  int64
}

func NewSyncService(store SnapshotStore, publisher SyncPublisher) *SyncService {
	return &SyncService{
		store:     store,
		publisher: publisher,
		timeout:   10 * time.Second,
	}
}

// Revision returns the number of model updates observed so far.
func (s *SyncService) Revision() int64 {
	return s.revision
}

// Update implements model.Listener. Failures are logged, not
// propagated: the in-memory model is the source of truth and a
// persistence hiccup must not break the mutation path.
func (s *SyncService) Update(m *model.TransactionModel) {
	s.revision++

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	transactions := m.Transactions()
	snap := storage.Snapshot{
		Revision:       s.revision,
		SavedAt:        time.Now().UTC(),
		MatchedIndices: m.MatchedFilterIndices(),
	}
	for _, t := range transactions {
		snap.Transactions = append(snap.Transactions, *t)
	}

	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			slog.ErrorContext(ctx, "Failed to save model snapshot",
				applog.FieldError, err,
				applog.FieldRevision, s.revision)
			return
		}
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSnapshotSync(ctx, s.revision, len(snap.Transactions)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish snapshot sync message",
			applog.FieldError, err,
			applog.FieldRevision, s.revision)
	}
}

// Restore seeds a model from a persisted snapshot. It must run before
// listeners are registered; add/set notifications during seeding go
// nowhere. Matched indices are restored last because every add clears
// them.
func Restore(m *model.TransactionModel, s storage.Snapshot) error {
	for i := range s.Transactions {
		t := s.Transactions[i]
		if err := m.AddTransaction(&t); err != nil {
			return fmt.Errorf("restore transaction %d: %w", i, err)
		}
	}
	if s.MatchedIndices != nil {
		if err := m.SetMatchedFilterIndices(s.MatchedIndices); err != nil {
			return fmt.Errorf("restore matched indices: %w", err)
		}
	}
	return nil
}
