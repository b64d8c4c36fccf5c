// Package memory is an in-memory journal writer used in tests and local
// development where no spreadsheet is available.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tygerearth-labs/finacial-tracker/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	entries []sheets.Entry
	failErr error
}

var _ sheets.JournalWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e sheets.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	if e.TransactionID == 0 {
		return "", errors.New("entry missing transaction id")
	}
	s.entries = append(s.entries, e)
	return fmt.Sprintf("mem:%d", len(s.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (s *Store) Entries() []sheets.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Entry(nil), s.entries...)
}

// FailWith makes subsequent Append calls return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}
