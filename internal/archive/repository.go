// Package archive persists created expenses to a local SQLite database so
// the primary JSON document stays small and queryable history survives it.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kharcha/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Archive records an expense, once. Replaying the same record is a no-op,
// so the consumer can ack duplicates safely.
func (r *Repository) Archive(ctx context.Context, e core.Expense) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO archived_expenses
		   (id, amount_paise, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.AmountPaise, e.Category, e.Description, e.Date,
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("archive expense %s: %w", e.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	slog.InfoContext(ctx, "Expense archived",
		"id", e.ID,
		"category", e.Category,
		"amount_paise", e.AmountPaise,
		"date", e.Date)

	return true, nil
}

// Has reports whether an expense id is already archived.
func (r *Repository) Has(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM archived_expenses WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check archived expense %s: %w", id, err)
	}
	return true, nil
}

// Count returns the number of archived expenses.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM archived_expenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archived expenses: %w", err)
	}
	return n, nil
}
