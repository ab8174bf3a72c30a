// Package client submits expenses to the API with a durable retry slot:
// the submission is saved locally before it goes on the wire and the same
// idempotency key is replayed until the server confirms it.
package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Payload is the expense submission as the API accepts it.
type Payload struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
}

// Pending couples a payload with the idempotency key minted for it.
type Pending struct {
	Key     string  `json:"key"`
	Payload Payload `json:"payload"`
}

// PendingStore keeps at most one in-flight submission on disk.
type PendingStore struct {
	path string
}

func NewPendingStore(path string) (*PendingStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create pending directory: %w", err)
	}
	return &PendingStore{path: path}, nil
}

// Load returns the stored pending submission, or nil when there is none.
func (s *PendingStore) Load() (*Pending, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var p Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode pending file: %w", err)
	}
	return &p, nil
}

// Save persists the pending submission before any network attempt.
func (s *PendingStore) Save(p Pending) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pending submission: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace pending file: %w", err)
	}
	return nil
}

// Clear removes the pending submission after a confirmed success.
func (s *PendingStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pending file: %w", err)
	}
	return nil
}
