// Package model holds the in-memory transaction model and its observer
// mechanism. The model owns an ordered transaction log, the positions
// that currently match an externally computed filter, and the set of
// registered listeners; every successful mutation notifies listeners
// synchronously.
//
// The model performs no locking. Callers that share a model across
// goroutines must serialize access themselves (the HTTP server guards
// its model with a single mutex).
package model

import (
	"errors"
	"fmt"

	"expenses/internal/core"
)

// ErrInvalidArgument is the only error kind the model reports. It is
// returned, wrapped with detail, for a nil transaction on add and for a
// nil or out-of-range index list. Check with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// Listener is notified after every successful mutation of a
// TransactionModel. Update receives the model itself so the listener
// can read the new state through the accessor methods.
//
// Listeners are compared by interface identity when registering, so
// implementations must be comparable (pointer receivers are the norm).
// Mutating the model from within Update is allowed; the nested
// mutation runs to completion, including its own notification round,
// before the outer dispatch continues.
type Listener interface {
	Update(m *TransactionModel)
}

// TransactionModel is a reactive store for financial transactions.
// The zero value is not usable; construct with New.
type TransactionModel struct {
	transactions         []*core.Transaction
	matchedFilterIndices []int
	listeners            []Listener
}

// New returns an empty model with no transactions, no matched filter
// indices and no listeners.
func New() *TransactionModel {
	return &TransactionModel{}
}

// AddTransaction appends t to the transaction log, drops any matched
// filter indices (positions may no longer line up) and notifies
// listeners. A nil transaction is rejected with ErrInvalidArgument
// before any state changes.
func (m *TransactionModel) AddTransaction(t *core.Transaction) error {
	if t == nil {
		return fmt.Errorf("%w: transaction is nil", ErrInvalidArgument)
	}
	m.transactions = append(m.transactions, t)
	m.matchedFilterIndices = nil
	m.stateChanged()
	return nil
}

// RemoveTransaction removes the first entry equal to t from the log.
// A nil or absent transaction removes nothing; this is not an error.
//
// Matched filter indices are cleared and listeners are notified on
// every call, even when nothing was removed.
func (m *TransactionModel) RemoveTransaction(t *core.Transaction) {
	if t != nil {
		for i, existing := range m.transactions {
			if existing == t || existing.Equal(*t) {
				m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
				break
			}
		}
	}
	m.matchedFilterIndices = nil
	m.stateChanged()
}

// Transactions returns a snapshot of the transaction log. The returned
// slice is independent of the model: later mutations do not show
// through it. Elements are shared pointers to immutable values.
func (m *TransactionModel) Transactions() []*core.Transaction {
	out := make([]*core.Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// SetMatchedFilterIndices replaces the matched filter index list with
// an independent copy of indices, preserving order, and notifies
// listeners. The whole list is validated against the current log
// length before anything is stored: a nil list or a single
// out-of-range element rejects the call with ErrInvalidArgument and
// leaves the previous indices in place.
func (m *TransactionModel) SetMatchedFilterIndices(indices []int) error {
	if indices == nil {
		return fmt.Errorf("%w: matched filter indices are nil", ErrInvalidArgument)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(m.transactions) {
			return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidArgument, idx, len(m.transactions))
		}
	}
	m.matchedFilterIndices = append([]int(nil), indices...)
	m.stateChanged()
	return nil
}

// MatchedFilterIndices returns a snapshot of the matched filter index
// list, with the same isolation guarantee as Transactions.
func (m *TransactionModel) MatchedFilterIndices() []int {
	return append([]int(nil), m.matchedFilterIndices...)
}

// Register adds l to the listener set. It returns false, without
// registering anything, when l is nil or already registered; there are
// never duplicate entries. Registration alone does not notify.
func (m *TransactionModel) Register(l Listener) bool {
	if l == nil || m.ContainsListener(l) {
		return false
	}
	m.listeners = append(m.listeners, l)
	return true
}

// NumberOfListeners returns how many listeners are registered.
func (m *TransactionModel) NumberOfListeners() int {
	return len(m.listeners)
}

// ContainsListener reports whether l is currently registered.
func (m *TransactionModel) ContainsListener(l Listener) bool {
	for _, existing := range m.listeners {
		if existing == l {
			return true
		}
	}
	return false
}

// stateChanged notifies every listener, in registration order, that
// the model mutated. Dispatch walks a snapshot of the listener slice,
// so a Register call made from within Update takes effect only for
// subsequent mutations.
func (m *TransactionModel) stateChanged() {
	current := make([]Listener, len(m.listeners))
	copy(current, m.listeners)
	for _, l := range current {
		l.Update(m)
	}
}
