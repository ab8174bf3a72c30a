// Package store persists the expense collection and idempotency ledger as a
// single JSON document. The document is read fully before each operation and
// rewritten fully after each mutation; there are no partial updates.
package store

import (
	"context"

	"kharcha/internal/core"
)

// State is the full persisted document.
type State struct {
	Expenses []core.Expense `json:"expenses"`
	// Idempotency maps a client-chosen key to the id of the record it
	// produced. Entries are written at most once and never removed.
	Idempotency map[string]string `json:"idempotency"`
}

// NewState returns an empty, fully initialized document.
func NewState() State {
	return State{
		Expenses:    []core.Expense{},
		Idempotency: map[string]string{},
	}
}

// FindExpense returns the expense with the given id, if present.
func (s State) FindExpense(id string) (core.Expense, bool) {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// Clone returns a deep copy so callers can mutate freely.
func (s State) Clone() State {
	out := State{
		Expenses:    make([]core.Expense, len(s.Expenses)),
		Idempotency: make(map[string]string, len(s.Idempotency)),
	}
	copy(out.Expenses, s.Expenses)
	for k, v := range s.Idempotency {
		out.Idempotency[k] = v
	}
	return out
}

// Store reads and writes the full document. Implementations do not provide
// isolation between concurrent callers; read-modify-write cycles are
// last-writer-wins at document granularity.
type Store interface {
	Read(ctx context.Context) (State, error)
	Write(ctx context.Context, state State) error
}
