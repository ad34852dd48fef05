package services

import (
	"context"
	"errors"
	"testing"

	"expenses/internal/core"
	"expenses/internal/model"
	"expenses/internal/storage"
)

type fakeStore struct {
	saved []storage.Snapshot
	err   error
}

func (f *fakeStore) SaveSnapshot(_ context.Context, s storage.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

type fakePublisher struct {
	revisions []int64
	counts    []int
}

func (f *fakePublisher) PublishSnapshotSync(_ context.Context, revision int64, transactionCount int) error {
	f.revisions = append(f.revisions, revision)
	f.counts = append(f.counts, transactionCount)
	return nil
}

func tx(desc string) *core.Transaction {
	return &core.Transaction{
		Date:        core.NewDate(2026, 8, 23),
		Description: desc,
		Amount:      core.Money{Cents: 100},
		Category:    "misc",
	}
}

func TestSyncService_PersistsAndPublishesPerUpdate(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewSyncService(store, pub)

	m := model.New()
	if !m.Register(svc) {
		t.Fatal("register failed")
	}

	if err := m.AddTransaction(tx("one")); err != nil {
		t.Fatal(err)
	}
	if err := m.AddTransaction(tx("two")); err != nil {
		t.Fatal(err)
	}
	if err := m.SetMatchedFilterIndices([]int{1}); err != nil {
		t.Fatal(err)
	}

	if len(store.saved) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(store.saved))
	}
	last := store.saved[2]
	if last.Revision != 3 {
		t.Errorf("revision = %d, want 3", last.Revision)
	}
	if len(last.Transactions) != 2 {
		t.Errorf("snapshot transactions = %d, want 2", len(last.Transactions))
	}
	if len(last.MatchedIndices) != 1 || last.MatchedIndices[0] != 1 {
		t.Errorf("snapshot matched indices = %v, want [1]", last.MatchedIndices)
	}

	if len(pub.revisions) != 3 || pub.revisions[2] != 3 || pub.counts[2] != 2 {
		t.Errorf("publisher saw %v / %v", pub.revisions, pub.counts)
	}
	if svc.Revision() != 3 {
		t.Errorf("Revision() = %d, want 3", svc.Revision())
	}
}

func TestSyncService_StoreFailureSkipsPublish(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	pub := &fakePublisher{}
	svc := NewSyncService(store, pub)

	m := model.New()
	m.Register(svc)
	if err := m.AddTransaction(tx("one")); err != nil {
		t.Fatalf("model mutation must not fail on listener errors: %v", err)
	}

	if len(pub.revisions) != 0 {
		t.Errorf("publish must be skipped when storage fails, got %v", pub.revisions)
	}
}

func TestSyncService_NilCollaborators(t *testing.T) {
	svc := NewSyncService(nil, nil)
	m := model.New()
	m.Register(svc)

	// Must not panic and must not break the mutation.
	if err := m.AddTransaction(tx("one")); err != nil {
		t.Fatal(err)
	}
	if svc.Revision() != 1 {
		t.Errorf("Revision() = %d, want 1", svc.Revision())
	}
}

func TestRestore(t *testing.T) {
	snap := storage.Snapshot{
		Revision: 5,
		Transactions: []core.Transaction{
			*tx("one"),
			*tx("two"),
		},
		MatchedIndices: []int{0},
	}

	m := model.New()
	if err := Restore(m, snap); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if got := len(m.Transactions()); got != 2 {
		t.Errorf("restored transactions = %d, want 2", got)
	}
	if got := m.MatchedFilterIndices(); len(got) != 1 || got[0] != 0 {
		t.Errorf("restored matched indices = %v, want [0]", got)
	}
}

func TestRestore_InvalidIndices(t *testing.T) {
	snap := storage.Snapshot{
		Transactions:   []core.Transaction{*tx("one")},
		MatchedIndices: []int{5},
	}
	if err := Restore(model.New(), snap); err == nil {
		t.Fatal("expected error for out-of-range persisted index")
	}
}
