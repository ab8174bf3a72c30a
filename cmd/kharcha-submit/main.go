package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"kharcha/internal/client"
	"kharcha/internal/core"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	var (
		baseURL     = flag.String("server", envOr("KHARCHA_SERVER", "http://localhost:4000"), "expense API base URL")
		pendingPath = flag.String("pending-file", envOr("KHARCHA_PENDING_FILE", defaultPendingPath()), "path of the pending submission file")
		amount      = flag.String("amount", "", "amount in rupees, up to 2 decimals (e.g. 12.30)")
		category    = flag.String("category", "", "expense category")
		description = flag.String("description", "", "optional note")
		date        = flag.String("date", "", "expense date (YYYY-MM-DD or ISO timestamp)")
		retryOnly   = flag.Bool("retry", false, "only retry the pending submission, do not submit a new expense")
	)
	flag.Parse()

	pending, err := client.NewPendingStore(*pendingPath)
	if err != nil {
		fatal("open pending store: %v", err)
	}
	submitter := client.NewSubmitter(*baseURL, pending)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A leftover submission from a previous run goes first, with its
	// original idempotency key, so it can never double-create.
	expense, hadPending, err := submitter.Retry(ctx)
	switch {
	case err != nil && *retryOnly:
		fatal("retry pending submission: %v", err)
	case err != nil:
		// A new submission below overwrites the slot, so keep going.
		fmt.Fprintf(os.Stderr, "pending submission still failing: %v\n", err)
	case hadPending:
		printExpense("recovered", expense)
	}

	if *retryOnly {
		if !hadPending {
			fmt.Println("nothing pending")
		}
		return
	}

	if *amount == "" && *category == "" && *date == "" {
		if !hadPending {
			flag.Usage()
			os.Exit(2)
		}
		return
	}

	payload := client.Payload{
		Amount:      *amount,
		Category:    *category,
		Description: *description,
		Date:        *date,
	}

	expense, err = submitter.Submit(ctx, payload)
	if err != nil {
		var serverErr *client.ServerError
		if errors.As(err, &serverErr) && serverErr.StatusCode < 500 {
			// Rejected input; keeping it pending would retry a lost cause.
			fatal("%s", serverErr.Message)
		}
		fmt.Fprintf(os.Stderr, "submit failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "the expense is saved locally; run again with -retry to resubmit")
		os.Exit(1)
	}

	printExpense("saved", expense)
}

func printExpense(verb string, e core.Expense) {
	fmt.Printf("%s %s  %s  %s  %s\n", verb, e.ID, e.Date, e.Category, core.FormatRupees(e.AmountPaise))
}

func defaultPendingPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./pending.json"
	}
	return filepath.Join(home, ".kharcha", "pending.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
