package core

import "time"

type (
	// Expense is a single accepted expense record. All fields are immutable
	// after creation; AmountPaise is derived once from the submitted amount
	// string and never recomputed.
	Expense struct {
		ID          string    `json:"id"`
		AmountPaise int64     `json:"amount"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
		Date        string    `json:"date"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// ValidationError carries the user-facing message for malformed input.
	// Handlers surface it as a 400 with exactly this message.
	ValidationError struct {
		Message string
	}
)

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(msg string) error {
	return &ValidationError{Message: msg}
}
