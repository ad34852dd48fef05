package memory

import (
	"context"
	"testing"

	"expenses/internal/core"
)

func TestWriteSnapshot_CopiesState(t *testing.T) {
	s := New()
	txs := []core.Transaction{{
		Date:        core.NewDate(2026, 8, 23),
		Description: "coffee",
		Amount:      core.Money{Cents: 250},
		Category:    "food",
	}}
	matched := []int{0}

	if err := s.WriteSnapshot(context.Background(), txs, matched); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Mutating the caller's slices must not affect the store.
	matched[0] = 99
	gotTxs, gotMatched := s.Snapshot()
	if len(gotTxs) != 1 || gotTxs[0].Description != "coffee" {
		t.Errorf("stored transactions wrong: %+v", gotTxs)
	}
	if len(gotMatched) != 1 || gotMatched[0] != 0 {
		t.Errorf("store aliases caller slice: %v", gotMatched)
	}
	if s.Writes() != 1 {
		t.Errorf("writes = %d, want 1", s.Writes())
	}
}

func TestWriteSnapshot_ReplacesPrevious(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := []core.Transaction{{
		Date:        core.NewDate(2026, 1, 1),
		Description: "old",
		Amount:      core.Money{Cents: 100},
		Category:    "misc",
	}}
	if err := s.WriteSnapshot(ctx, first, []int{0}); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteSnapshot(ctx, nil, nil); err != nil {
		t.Fatal(err)
	}

	gotTxs, gotMatched := s.Snapshot()
	if len(gotTxs) != 0 || len(gotMatched) != 0 {
		t.Errorf("second write must replace first, got %v %v", gotTxs, gotMatched)
	}
	if s.Writes() != 2 {
		t.Errorf("writes = %d, want 2", s.Writes())
	}
}
