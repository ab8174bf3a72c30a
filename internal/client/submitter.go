package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
)

const defaultTimeout = 10 * time.Second

// ServerError carries the API's error message for a rejected submission.
// The pending slot is kept so the caller can correct and retry.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected submission (%d): %s", e.StatusCode, e.Message)
}

type Submitter struct {
	baseURL    string
	httpClient *http.Client
	pending    *PendingStore
	newKey     func() string
}

func NewSubmitter(baseURL string, pending *PendingStore) *Submitter {
	return &Submitter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		pending:    pending,
		newKey:     uuid.NewString,
	}
}

// Submit records the payload with a fresh idempotency key, then sends it.
// The record survives a failed attempt so Retry can replay the same key.
func (s *Submitter) Submit(ctx context.Context, payload Payload) (core.Expense, error) {
	p := Pending{Key: s.newKey(), Payload: payload}
	if err := s.pending.Save(p); err != nil {
		return core.Expense{}, fmt.Errorf("save pending submission: %w", err)
	}
	return s.send(ctx, p)
}

// Retry replays the stored pending submission, if any. The second return
// value reports whether there was one.
func (s *Submitter) Retry(ctx context.Context) (core.Expense, bool, error) {
	p, err := s.pending.Load()
	if err != nil {
		return core.Expense{}, false, err
	}
	if p == nil {
		return core.Expense{}, false, nil
	}

	slog.InfoContext(ctx, "Retrying pending submission",
		"key", p.Key,
		"category", p.Payload.Category,
		"date", p.Payload.Date)

	expense, err := s.send(ctx, *p)
	return expense, true, err
}

func (s *Submitter) send(ctx context.Context, p Pending) (core.Expense, error) {
	body, err := json.Marshal(p.Payload)
	if err != nil {
		return core.Expense{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/expenses", bytes.NewReader(body))
	if err != nil {
		return core.Expense{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", p.Key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return core.Expense{}, fmt.Errorf("submit expense: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return core.Expense{}, &ServerError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	var expense core.Expense
	if err := json.NewDecoder(resp.Body).Decode(&expense); err != nil {
		return core.Expense{}, fmt.Errorf("decode response: %w", err)
	}

	// Confirmed by the server; only now does the slot go away.
	if err := s.pending.Clear(); err != nil {
		return core.Expense{}, fmt.Errorf("clear pending submission: %w", err)
	}

	slog.InfoContext(ctx, "Expense submitted",
		"id", expense.ID,
		"status", resp.StatusCode,
		"amount", core.FormatRupees(expense.AmountPaise))

	return expense, nil
}
