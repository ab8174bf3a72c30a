// Package worker consumes expense creation events and archives them to
// SQLite, with a periodic sweep over the primary store to catch records
// whose events were lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/store"
)

type Archiver interface {
	Archive(ctx context.Context, e core.Expense) (bool, error)
	Has(ctx context.Context, id string) (bool, error)
}

type Exporter interface {
	Append(ctx context.Context, e core.Expense) error
}

type Consumer interface {
	ConsumeExpenseCreated(ctx context.Context, handler func(context.Context, *amqp.ExpenseCreatedMessage) error) error
}

type ArchiveWorker struct {
	archiver Archiver
	reader   store.Store
	// Optional; nil disables sheet export.
	exporter      Exporter
	sweepInterval time.Duration
	sweepBatch    int
}

func NewArchiveWorker(archiver Archiver, reader store.Store, exporter Exporter, sweepInterval time.Duration, sweepBatch int) *ArchiveWorker {
	return &ArchiveWorker{
		archiver:      archiver,
		reader:        reader,
		exporter:      exporter,
		sweepInterval: sweepInterval,
		sweepBatch:    sweepBatch,
	}
}

// HandleMessage archives a single expense creation event. Duplicate
// deliveries are acked without a second insert.
func (w *ArchiveWorker) HandleMessage(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	expense := msg.Expense()

	inserted, err := w.archiver.Archive(ctx, expense)
	if err != nil {
		return fmt.Errorf("archive expense %s: %w", expense.ID, err)
	}
	if !inserted {
		slog.InfoContext(ctx, "Duplicate event ignored", "id", expense.ID)
		return nil
	}

	w.export(ctx, expense)
	return nil
}

// Sweep archives any stored expenses whose events never arrived, up to the
// configured batch size per pass.
func (w *ArchiveWorker) Sweep(ctx context.Context) error {
	state, err := w.reader.Read(ctx)
	if err != nil {
		return fmt.Errorf("read expense store: %w", err)
	}

	archived := 0
	for _, expense := range state.Expenses {
		if archived >= w.sweepBatch {
			break
		}

		has, err := w.archiver.Has(ctx, expense.ID)
		if err != nil {
			return fmt.Errorf("check archive for %s: %w", expense.ID, err)
		}
		if has {
			continue
		}

		inserted, err := w.archiver.Archive(ctx, expense)
		if err != nil {
			return fmt.Errorf("archive expense %s: %w", expense.ID, err)
		}
		if inserted {
			archived++
			w.export(ctx, expense)
		}
	}

	if archived > 0 {
		slog.InfoContext(ctx, "Sweep archived missed expenses", "count", archived)
	}
	return nil
}

// Run consumes events and sweeps in parallel until the context is cancelled.
func (w *ArchiveWorker) Run(ctx context.Context, consumer Consumer) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeExpenseCreated(ctx, w.HandleMessage)
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.Sweep(ctx); err != nil {
					slog.ErrorContext(ctx, "Sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// Sheet export is best effort; a failed append never blocks archiving.
func (w *ArchiveWorker) export(ctx context.Context, expense core.Expense) {
	if w.exporter == nil {
		return
	}
	if err := w.exporter.Append(ctx, expense); err != nil {
		slog.ErrorContext(ctx, "Failed to export expense to sheet",
			"id", expense.ID,
			"error", err)
	}
}
