package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/sheets/memory"
	"expenses/internal/storage"
)

type fakeLoader struct {
	snap storage.Snapshot
	err  error
}

func (f *fakeLoader) LoadSnapshot(context.Context) (storage.Snapshot, error) {
	return f.snap, f.err
}

func snapshot(revision int64) storage.Snapshot {
	return storage.Snapshot{
		Revision: revision,
		Transactions: []core.Transaction{{
			Date:        core.NewDate(2026, 8, 23),
			Description: "coffee",
			Amount:      core.Money{Cents: 250},
			Category:    "food",
		}},
		MatchedIndices: []int{0},
	}
}

func TestHandleSyncMessage_ExportsSnapshot(t *testing.T) {
	store := memory.New()
	w := NewSyncWorker(&fakeLoader{snap: snapshot(1)}, store)

	msg := amqp.NewSnapshotSyncMessage(1, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	txs, matched := store.Snapshot()
	if len(txs) != 1 || txs[0].Description != "coffee" {
		t.Errorf("exported transactions wrong: %+v", txs)
	}
	if len(matched) != 1 || matched[0] != 0 {
		t.Errorf("exported matched indices wrong: %v", matched)
	}
}

func TestHandleSyncMessage_SkipsStaleRevisions(t *testing.T) {
	store := memory.New()
	w := NewSyncWorker(&fakeLoader{snap: snapshot(3)}, store)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewSnapshotSyncMessage(3, 1)); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleSyncMessage(context.Background(), amqp.NewSnapshotSyncMessage(2, 1)); err != nil {
		t.Fatal(err)
	}

	if store.Writes() != 1 {
		t.Errorf("stale message must not re-export, writes=%d", store.Writes())
	}
}

func TestHandleSyncMessage_LoaderError(t *testing.T) {
	w := NewSyncWorker(&fakeLoader{err: errors.New("db locked")}, memory.New())

	err := w.HandleSyncMessage(context.Background(), amqp.NewSnapshotSyncMessage(1, 0))
	if err == nil {
		t.Fatal("expected error when snapshot load fails")
	}
}

func TestSyncWorker_ConcurrentConsumeAndResync(t *testing.T) {
	store := memory.New()
	w := NewSyncWorker(&fakeLoader{snap: snapshot(5)}, store)

	// The consume loop and the periodic tick hit the worker from
	// different goroutines; the revision gate must stay consistent.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = w.HandleSyncMessage(context.Background(), amqp.NewSnapshotSyncMessage(5, 1))
		}()
		go func() {
			defer wg.Done()
			_ = w.Resync(context.Background())
		}()
	}
	wg.Wait()

	if store.Writes() == 0 {
		t.Fatal("expected at least one export")
	}
	txs, matched := store.Snapshot()
	if len(txs) != 1 || len(matched) != 1 {
		t.Errorf("exported state wrong: txs=%+v matched=%v", txs, matched)
	}
}

func TestResync_IgnoresRevisionGate(t *testing.T) {
	store := memory.New()
	loader := &fakeLoader{snap: snapshot(2)}
	w := NewSyncWorker(loader, store)

	if err := w.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}

	if store.Writes() != 2 {
		t.Errorf("resync must always export, writes=%d", store.Writes())
	}
}
