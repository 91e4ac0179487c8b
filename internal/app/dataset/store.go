package dataset

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

var ErrNotFound = errors.New("supplier not found")

// Store keeps the session's supplier rows under stable ids. Rows are never
// modified in place: every write stores a fresh copy and every read hands
// one out.
type Store struct {
	mu     sync.RWMutex
	order  []string
	rows   map[string]domain.SupplierRecord
	schema domain.SupplierSchema
}

func New() *Store {
	return &Store{rows: make(map[string]domain.SupplierRecord)}
}

// Reset replaces the whole dataset and returns the new ids in input order.
func (s *Store) Reset(schema domain.SupplierSchema, records []domain.SupplierRecord) []string {
	order := make([]string, 0, len(records))
	rows := make(map[string]domain.SupplierRecord, len(records))
	for _, rec := range records {
		rec = rec.Clone()
		rec.ID = uuid.NewString()
		rows[rec.ID] = rec
		order = append(order, rec.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order, s.rows = order, rows
	s.schema = schema
	s.schema.Headers = append([]string(nil), schema.Headers...)
	return append([]string(nil), order...)
}

func (s *Store) Get(id string) (domain.SupplierRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rows[id]
	if !ok {
		return domain.SupplierRecord{}, false
	}
	return rec.Clone(), true
}

// Update applies fn to a copy of the row and stores a copy of the result,
// so nothing fn assigned stays shared with the caller.
func (s *Store) Update(id string, fn func(*domain.SupplierRecord)) (domain.SupplierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[id]
	if !ok {
		return domain.SupplierRecord{}, ErrNotFound
	}
	next := cur.Clone()
	fn(&next)
	next.ID = id
	s.rows[id] = next.Clone()
	return next, nil
}

// Snapshot returns copies of every row in input order.
func (s *Store) Snapshot() []domain.SupplierRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SupplierRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id].Clone())
	}
	return out
}

func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) Schema() domain.SupplierSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema := s.schema
	schema.Headers = append([]string(nil), s.schema.Headers...)
	return schema
}
