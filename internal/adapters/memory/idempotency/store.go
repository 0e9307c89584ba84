package idempotency

import (
	"context"
	"sync"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/idempotency"
)

// Store keeps replayable responses in a map keyed by request fingerprint.
// Bodies are copied on the way in and out.
type Store struct {
	mu      sync.RWMutex
	records map[idempotency.Fingerprint]idempotency.Record
}

func NewStore() *Store {
	return &Store{records: make(map[idempotency.Fingerprint]idempotency.Record)}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fp]
	if !ok {
		return idempotency.Record{}, false, nil
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	rec.Body = append([]byte(nil), rec.Body...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[fp] = rec
	return nil
}
