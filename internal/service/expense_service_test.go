package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

type capturePublisher struct {
	published []core.Expense
	err       error
}

func (p *capturePublisher) PublishExpenseCreated(_ context.Context, e core.Expense) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

type failingStore struct {
	store.Store
	readErr  error
	writeErr error
}

func (f *failingStore) Read(ctx context.Context) (store.State, error) {
	if f.readErr != nil {
		return store.State{}, f.readErr
	}
	return f.Store.Read(ctx)
}

func (f *failingStore) Write(ctx context.Context, state store.State) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Store.Write(ctx, state)
}

func validInput() CreateExpenseInput {
	return CreateExpenseInput{
		Amount:      "12.3",
		Category:    "Food",
		Description: "lunch",
		Date:        "2024-03-07",
	}
}

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.NewMemoryStore(), nil)

	res, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if !res.Created {
		t.Fatal("expected created status")
	}
	e := res.Expense
	if e.ID == "" {
		t.Fatal("expected assigned id")
	}
	if e.AmountPaise != 1230 || e.Category != "Food" || e.Description != "lunch" || e.Date != "2024-03-07" {
		t.Fatalf("unexpected record: %+v", e)
	}
	if e.CreatedAt.IsZero() || e.CreatedAt.Location() != time.UTC {
		t.Fatalf("created_at should be a UTC timestamp: %v", e.CreatedAt)
	}
}

func TestCreateExpenseValidationShortCircuits(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.NewMemoryStore(), nil)

	// Amount and category both invalid: the amount message wins.
	_, err := svc.CreateExpense(ctx, CreateExpenseInput{Amount: "", Category: "", Date: ""})
	if err == nil || err.Error() != "Amount is required" {
		t.Fatalf("expected amount error first, got %v", err)
	}

	// Category and date both invalid: the category message wins.
	_, err = svc.CreateExpense(ctx, CreateExpenseInput{Amount: "1", Category: " ", Date: "bad"})
	if err == nil || err.Error() != "Category is required" {
		t.Fatalf("expected category error, got %v", err)
	}

	_, err = svc.CreateExpense(ctx, CreateExpenseInput{Amount: "1", Category: "Food", Date: "bad"})
	if err == nil || err.Error() != "Date must be a valid ISO date or YYYY-MM-DD" {
		t.Fatalf("expected date error, got %v", err)
	}

	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	// Nothing persisted on validation failure.
	list, err := svc.ListExpenses(ctx, "", "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %d records", len(list))
	}
}

func TestCreateExpenseIdempotencyKeyReplay(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.NewMemoryStore(), nil)

	input := validInput()
	input.IdempotencyKey = "key-1"

	first, err := svc.CreateExpense(ctx, input)
	if err != nil {
		t.Fatalf("first CreateExpense: %v", err)
	}
	if !first.Created {
		t.Fatal("first call should create")
	}

	// Replay with a different payload: the stored record wins untouched.
	input.Amount = "999.99"
	input.Description = "changed"
	second, err := svc.CreateExpense(ctx, input)
	if err != nil {
		t.Fatalf("second CreateExpense: %v", err)
	}
	if second.Created {
		t.Fatal("replay should not create")
	}
	if second.Expense != first.Expense {
		t.Fatalf("replay should return the original record: %+v vs %+v", second.Expense, first.Expense)
	}

	list, err := svc.ListExpenses(ctx, "", "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(list))
	}
}

func TestCreateExpenseWithoutKeyDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.NewMemoryStore(), nil)

	first, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("first CreateExpense: %v", err)
	}
	second, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("second CreateExpense: %v", err)
	}
	if first.Expense.ID == second.Expense.ID {
		t.Fatal("identical payloads without a key must produce distinct records")
	}

	list, err := svc.ListExpenses(ctx, "", "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected two records, got %d", len(list))
	}
}

func TestCreateExpensePublishes(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := NewExpenseService(store.NewMemoryStore(), pub)

	res, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0].ID != res.Expense.ID {
		t.Fatalf("expected published record, got %+v", pub.published)
	}

	// Replay with the same key publishes nothing.
	input := validInput()
	input.IdempotencyKey = "key-pub"
	if _, err := svc.CreateExpense(ctx, input); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	before := len(pub.published)
	if _, err := svc.CreateExpense(ctx, input); err != nil {
		t.Fatalf("replay CreateExpense: %v", err)
	}
	if len(pub.published) != before {
		t.Fatal("replay must not publish a second event")
	}
}

func TestCreateExpensePublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{err: errors.New("broker down")}
	svc := NewExpenseService(store.NewMemoryStore(), pub)

	res, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateExpense should tolerate publish failure: %v", err)
	}
	if !res.Created {
		t.Fatal("expected created status")
	}
}

func TestCreateExpenseStorageErrors(t *testing.T) {
	ctx := context.Background()

	svc := NewExpenseService(&failingStore{Store: store.NewMemoryStore(), readErr: errors.New("disk gone")}, nil)
	if _, err := svc.CreateExpense(ctx, validInput()); err == nil {
		t.Fatal("expected read error to surface")
	}

	svc = NewExpenseService(&failingStore{Store: store.NewMemoryStore(), writeErr: errors.New("disk full")}, nil)
	if _, err := svc.CreateExpense(ctx, validInput()); err == nil {
		t.Fatal("expected write error to surface")
	}
}

func TestListExpensesFilterIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.NewMemoryStore(), nil)

	for _, cat := range []string{"food", "FOOD", "Travel"} {
		input := validInput()
		input.Category = cat
		if _, err := svc.CreateExpense(ctx, input); err != nil {
			t.Fatalf("CreateExpense(%q): %v", cat, err)
		}
	}

	list, err := svc.ListExpenses(ctx, "Food", "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches for Food, got %d", len(list))
	}
	for _, e := range list {
		if !core.CategoryEquals(e.Category, "Food") {
			t.Fatalf("unexpected category in filtered list: %q", e.Category)
		}
	}
}

func TestListExpensesSortOrders(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.NewMemoryStore(), nil)

	dates := []string{"2024-03-09", "2024-03-07", "2024-03-08", "2024-03-07"}
	for i, d := range dates {
		input := validInput()
		input.Date = d
		input.Description = string(rune('a' + i))
		if _, err := svc.CreateExpense(ctx, input); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	desc, err := svc.ListExpenses(ctx, "", SortDateDesc)
	if err != nil {
		t.Fatalf("ListExpenses desc: %v", err)
	}
	for i := 1; i < len(desc); i++ {
		if desc[i-1].Date < desc[i].Date {
			t.Fatalf("dates not non-increasing: %v", datesOf(desc))
		}
	}

	asc, err := svc.ListExpenses(ctx, "", SortDateAsc)
	if err != nil {
		t.Fatalf("ListExpenses asc: %v", err)
	}
	for i := 1; i < len(asc); i++ {
		if asc[i-1].Date > asc[i].Date {
			t.Fatalf("dates not non-decreasing: %v", datesOf(asc))
		}
	}
	// Stable sort: the two 2024-03-07 records keep insertion order ("b" then "d").
	if asc[0].Description != "b" || asc[1].Description != "d" {
		t.Fatalf("same-day records should keep store order: %v", datesOf(asc))
	}

	// Unrecognized sort keeps store order.
	plain, err := svc.ListExpenses(ctx, "", "sideways")
	if err != nil {
		t.Fatalf("ListExpenses plain: %v", err)
	}
	for i, d := range dates {
		if plain[i].Date != d {
			t.Fatalf("store order not preserved: %v", datesOf(plain))
		}
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.NewMemoryStore(), nil)

	res, err := svc.CreateExpense(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	list, err := svc.ListExpenses(ctx, "", "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 1 || list[0] != res.Expense {
		t.Fatalf("listed record differs from created: %+v vs %+v", list[0], res.Expense)
	}
}

func datesOf(list []core.Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Date + "/" + e.Description
	}
	return out
}
