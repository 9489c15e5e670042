package memory

import (
	"context"
	"sync"

	"smartwallet/internal/sheets"
)

var _ sheets.RowWriter = (*Store)(nil)

// Store keeps the last written sheet in memory. It backs the export when no
// spreadsheet is configured and stands in for Google Sheets in tests.
type Store struct {
	mu     sync.Mutex
	values [][]any
	writes int
	err    error
}

func New() *Store {
	return &Store{}
}

// FailWith makes subsequent writes return err. A nil err clears the failure.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ReplaceRows stores a copy of values and returns the number of data rows.
func (s *Store) ReplaceRows(_ context.Context, values [][]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return 0, s.err
	}
	s.values = make([][]any, len(values))
	for i, row := range values {
		s.values[i] = append([]any(nil), row...)
	}
	return dataRows(values), nil
}

// Values returns a copy of the stored sheet, header first.
func (s *Store) Values() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.values))
	for i, row := range s.values {
		out[i] = append([]any(nil), row...)
	}
	return out
}

// Writes counts ReplaceRows calls, failed ones included.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func dataRows(values [][]any) int {
	if len(values) == 0 {
		return 0
	}
	return len(values) - 1
}
