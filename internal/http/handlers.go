package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kharcha/internal/core"
	"kharcha/internal/service"
)

// maxBodyBytes bounds POST bodies; expense payloads are tiny.
const maxBodyBytes = 10 << 10

type createExpenseRequest struct {
	// Amount is accepted as a JSON string or number; either way it is
	// normalized from its textual form, never from a float.
	Amount         any    `json:"amount"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Date           string `json:"date"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	case http.MethodGet:
		s.handleListExpenses(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.ErrorContext(r.Context(), "Decode request body error", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	input := service.CreateExpenseInput{
		Amount:         amountString(req.Amount),
		Category:       req.Category,
		Description:    req.Description,
		Date:           req.Date,
		IdempotencyKey: idempotencyKey(r, req.IdempotencyKey),
	}

	result, err := s.expenses.CreateExpense(r.Context(), input)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create expense",
			"error", err,
			"category", input.Category,
			"operation", "create")
		writeError(w, http.StatusInternalServerError, "failed to save expense")
		return
	}

	// Any new record can change any cached list variant.
	if result.Created {
		s.listCache.Purge()
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result.Expense)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	sortOrder := strings.TrimSpace(r.URL.Query().Get("sort"))

	key := listCacheKey(category, sortOrder)
	if items, found := s.listCache.Get(key); found {
		slog.DebugContext(r.Context(), "List cache hit", "category", category, "sort", sortOrder)
		writeJSON(w, http.StatusOK, items)
		return
	}

	items, err := s.expenses.ListExpenses(r.Context(), category, sortOrder)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list expenses",
			"error", err,
			"category", category,
			"sort", sortOrder)
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}

	s.listCache.Set(key, items)
	writeJSON(w, http.StatusOK, items)
}

// idempotencyKey prefers the Idempotency-Key header, falling back to the
// body field.
func idempotencyKey(r *http.Request, bodyKey string) string {
	if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
		return key
	}
	return strings.TrimSpace(bodyKey)
}

// amountString renders the submitted amount as the string the normalizer
// expects. Numbers keep their shortest decimal form.
func amountString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}

func listCacheKey(category, sortOrder string) string {
	return strings.ToLower(category) + "|" + sortOrder
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
