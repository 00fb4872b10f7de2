package entry

import (
	"context"
	"sync"

	apperrors "github.com/matzehuels/codexrender/pkg/errors"
)

// MemoryStore keeps records in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns a store seeded with recs.
func NewMemoryStore(recs ...Record) *MemoryStore {
	s := &MemoryStore{records: make(map[string]Record, len(recs))}
	for _, r := range recs {
		s.records[r.ID] = r
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, apperrors.New(apperrors.ErrCodeEntryNotFound, "entry %q not found", id)
	}
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Summary())
	}
	SortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	if err := apperrors.ValidateEntryID(rec.ID); err != nil {
		return err
	}
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
