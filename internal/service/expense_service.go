// Package service implements the expense operations on top of the document
// store: idempotent creation and filtered, sorted listing.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

// Recognized sort orders for ListExpenses. Any other value keeps store order.
const (
	SortDateDesc = "date_desc"
	SortDateAsc  = "date_asc"
)

// EventPublisher receives accepted records for downstream processing (the
// archive pipeline). Publishing is best-effort; failures never fail a create.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}

// CreateExpenseInput carries the raw, unvalidated request fields.
type CreateExpenseInput struct {
	Amount         string
	Category       string
	Description    string
	Date           string
	IdempotencyKey string
}

// CreateResult reports the affected record and whether it was newly created.
// Created is false when the idempotency key was already bound.
type CreateResult struct {
	Expense core.Expense
	Created bool
}

// ExpenseService orchestrates validation, the idempotency ledger, and the
// document store. Mutations are serialized through one mutex so overlapping
// requests inside this process cannot lose each other's writes; nothing
// protects against a second process writing the same file.
type ExpenseService struct {
	mu        sync.Mutex
	store     store.Store
	publisher EventPublisher
	now       func() time.Time
	newID     func() string
}

func NewExpenseService(st store.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     st,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CreateExpense validates the input, consults the idempotency ledger, and
// appends a new record if the key is unbound. Validation short-circuits:
// the first failing field's message is the one surfaced.
func (s *ExpenseService) CreateExpense(ctx context.Context, input CreateExpenseInput) (CreateResult, error) {
	paise, err := core.ParseAmountToPaise(input.Amount)
	if err != nil {
		return CreateResult{}, err
	}
	category, err := core.NormalizeCategory(input.Category)
	if err != nil {
		return CreateResult{}, err
	}
	date, err := core.NormalizeDate(input.Date)
	if err != nil {
		return CreateResult{}, err
	}
	description := core.NormalizeDescription(input.Description)
	key := strings.TrimSpace(input.IdempotencyKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reload before every attempt; the file is the source of truth.
	state, err := s.store.Read(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("read store: %w", err)
	}

	if key != "" {
		if id, ok := state.Idempotency[key]; ok {
			if existing, ok := state.FindExpense(id); ok {
				slog.InfoContext(ctx, "Idempotency key already bound, returning existing record",
					"expense_id", existing.ID)
				return CreateResult{Expense: existing, Created: false}, nil
			}
		}
	}

	expense := core.Expense{
		ID:          s.newID(),
		AmountPaise: paise,
		Category:    category,
		Description: description,
		Date:        date,
		CreatedAt:   s.now().UTC(),
	}

	state.Expenses = append(state.Expenses, expense)
	if key != "" {
		state.Idempotency[key] = expense.ID
	}

	if err := s.store.Write(ctx, state); err != nil {
		return CreateResult{}, fmt.Errorf("write store: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"amount_paise", expense.AmountPaise,
		"category", expense.Category,
		"date", expense.Date)

	s.publishCreated(ctx, expense)

	return CreateResult{Expense: expense, Created: true}, nil
}

// ListExpenses reloads the store and returns records filtered by category
// (case-insensitive) and ordered by calendar date. Same-day records keep
// their store order. The underlying store is never mutated.
func (s *ExpenseService) ListExpenses(ctx context.Context, category, sortOrder string) ([]core.Expense, error) {
	state, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	result := make([]core.Expense, 0, len(state.Expenses))
	filter := strings.TrimSpace(category)
	for _, e := range state.Expenses {
		if filter != "" && !core.CategoryEquals(e.Category, filter) {
			continue
		}
		result = append(result, e)
	}

	// Dates are canonical YYYY-MM-DD, so string order is calendar order.
	switch sortOrder {
	case SortDateDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	case SortDateAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	}

	return result, nil
}

func (s *ExpenseService) publishCreated(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseCreated(ctx, e); err != nil {
		// The record is durable; archival catches up via the worker sweep.
		slog.ErrorContext(ctx, "Failed to publish expense created event",
			"expense_id", e.ID, "error", err)
	}
}
