package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kharcha/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testExpense(id string) core.Expense {
	return core.Expense{
		ID:          id,
		AmountPaise: 1230,
		Category:    "Food",
		Description: "lunch",
		Date:        "2024-03-07",
		CreatedAt:   time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC),
	}
}

func TestArchiveInsertsOnce(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	inserted, err := repo.Archive(ctx, testExpense("exp-1"))
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !inserted {
		t.Fatal("first archive should insert")
	}

	inserted, err = repo.Archive(ctx, testExpense("exp-1"))
	if err != nil {
		t.Fatalf("Archive replay: %v", err)
	}
	if inserted {
		t.Fatal("replay should be a no-op")
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestHas(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	ok, err := repo.Has(ctx, "missing")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Fatal("missing id reported as archived")
	}

	if _, err := repo.Archive(ctx, testExpense("exp-2")); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	ok, err = repo.Has(ctx, "exp-2")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Fatal("archived id not found")
	}
}
