// Package memory keeps published worksheets in process, for development
// without a spreadsheet and for tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"ledger/internal/interchange"
	"ledger/internal/sheets"
)

var _ sheets.Publisher = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	tabs         map[string]interchange.Sheet
	publications int
}

func New() *Store {
	return &Store{tabs: make(map[string]interchange.Sheet)}
}

// Publish stores a copy of every sheet under its name.
func (s *Store) Publish(ctx context.Context, in []interchange.Sheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, sh := range in {
		if sh.Name == "" {
			return errors.New("sheet name cannot be empty")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range in {
		s.tabs[sh.Name] = copySheet(sh)
	}
	s.publications++
	return nil
}

// Tab returns the last content published under name.
func (s *Store) Tab(name string) (interchange.Sheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.tabs[name]
	if !ok {
		return interchange.Sheet{}, false
	}
	return copySheet(sh), true
}

// Publications reports how many Publish calls succeeded.
func (s *Store) Publications() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publications
}

func copySheet(sh interchange.Sheet) interchange.Sheet {
	out := interchange.Sheet{
		Name:   sh.Name,
		Header: append([]string(nil), sh.Header...),
		Values: make([][]any, len(sh.Values)),
	}
	for i, row := range sh.Values {
		out.Values[i] = append([]any(nil), row...)
	}
	return out
}
