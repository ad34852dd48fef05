package core

import (
	"errors"
	"strings"
	"testing"
)

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		Date:        NewDate(2026, 8, 23),
		Description: "groceries",
		Amount:      Money{Cents: 4250},
		Category:    "food",
	}

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("overlong description", func(t *testing.T) {
		tx := valid
		tx.Description = strings.Repeat("x", 201)
		if tx.Validate() == nil {
			t.Fatal("expected error for 201-char description")
		}
	})
}

func TestTransaction_Equal(t *testing.T) {
	base := Transaction{
		Date:        NewDate(2026, 8, 23),
		Description: "coffee",
		Amount:      Money{Cents: 250},
		Category:    "food",
	}

	same := base
	if !base.Equal(same) {
		t.Error("identical values must be equal")
	}

	other := base
	other.Amount = Money{Cents: 251}
	if base.Equal(other) {
		t.Error("different amounts must not be equal")
	}

	// Same instant in a different location still compares equal.
	shifted := base
	shifted.Date = Date{Time: base.Date.Time.Local()}
	if !base.Equal(shifted) {
		t.Error("same instant in different locations must be equal")
	}
}
