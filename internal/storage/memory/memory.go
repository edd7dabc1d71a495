// Package memory is an in-process store for development and tests. It keeps
// the same batch semantics as the sqlite store: a batch is validated in full
// before any record is appended.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/ports"
)

var (
	ErrUnknownCaseFile     = errors.New("case file does not exist")
	ErrDuplicateFileNumber = errors.New("file number already exists")
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu          sync.RWMutex
	snap        core.Snapshot
	attachments []core.Attachment
}

// New returns a store holding a copy of seed.
func New(seed core.Snapshot) *Store {
	return &Store{snap: seed.Clone()}
}

// NewFromFile loads a JSON snapshot from path. A missing file yields an empty
// store.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(core.Snapshot{}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a JSON snapshot. Records must pass validation.
func Load(r io.Reader) (*Store, error) {
	var seed core.Snapshot
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return New(seed), nil
}

func (s *Store) Snapshot(_ context.Context) (core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), nil
}

// InsertBatch appends records to collection t. Nothing is appended unless
// every record decodes, validates and references an existing case file.
func (s *Store) InsertBatch(_ context.Context, t core.EntityType, records []map[string]any) error {
	batch, err := core.DecodeBatch(t, records)
	if err != nil {
		return err
	}
	if err := batch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReferences(batch); err != nil {
		return err
	}

	for _, c := range batch.CaseFiles {
		c.ID = newID(c.ID)
		s.snap.CaseFiles = append(s.snap.CaseFiles, c)
	}
	for _, e := range batch.CaseExpenses {
		e.ID = newID(e.ID)
		s.snap.CaseExpenses = append(s.snap.CaseExpenses, e)
	}
	for _, e := range batch.InstitutionEngagements {
		e.ID = newID(e.ID)
		s.snap.InstitutionEngagements = append(s.snap.InstitutionEngagements, e)
	}
	for _, e := range batch.InstitutionExpenses {
		e.ID = newID(e.ID)
		s.snap.InstitutionExpenses = append(s.snap.InstitutionExpenses, e)
	}
	for _, e := range batch.OfficeExpenses {
		e.ID = newID(e.ID)
		s.snap.OfficeExpenses = append(s.snap.OfficeExpenses, e)
	}
	return nil
}

// checkReferences mirrors the sqlite constraints: file numbers are unique per
// owner and case expenses point at a stored case file.
func (s *Store) checkReferences(batch core.Snapshot) error {
	numbers := make(map[[2]string]bool, len(s.snap.CaseFiles))
	ids := make(map[string]bool, len(s.snap.CaseFiles))
	for _, c := range s.snap.CaseFiles {
		numbers[[2]string{c.OwnerID, c.FileNumber}] = true
		ids[c.ID] = true
	}
	for i, c := range batch.CaseFiles {
		key := [2]string{c.OwnerID, c.FileNumber}
		if numbers[key] {
			return fmt.Errorf("record %d: %w: %q", i+1, ErrDuplicateFileNumber, c.FileNumber)
		}
		numbers[key] = true
	}
	for i, e := range batch.CaseExpenses {
		if !ids[e.CaseFileID] {
			return fmt.Errorf("record %d: %w: %q", i+1, ErrUnknownCaseFile, e.CaseFileID)
		}
	}
	return nil
}

func (s *Store) Attachments(_ context.Context, entityID string, t core.EntityType) ([]core.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Attachment, 0)
	for _, a := range s.attachments {
		if a.EntityID == entityID && a.EntityType == t {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddAttachment records attachment metadata and returns it with its ID set.
func (s *Store) AddAttachment(_ context.Context, a core.Attachment) (core.Attachment, error) {
	if !a.EntityType.IsValid() {
		return core.Attachment{}, fmt.Errorf("%w: %q", core.ErrUnknownEntity, a.EntityType)
	}
	a.ID = newID(a.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, a)
	return a, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
