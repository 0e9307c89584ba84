package recordrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
)

type key struct {
	kind domain.RecordKind
	id   domain.RecordID
}

// Repo is an in-memory implementation of recordrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[key]recordrepo.Record
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[key]recordrepo.Record)}
}

func (r *Repo) Create(ctx context.Context, rec recordrepo.Record) error {
	_ = ctx
	if rec.ID == "" {
		return recordrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{rec.Kind, rec.ID}
	if _, ok := r.byID[k]; ok {
		return recordrepo.ErrAlreadyExists
	}
	r.byID[k] = cloneRecord(rec)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, kind domain.RecordKind, id domain.RecordID) (recordrepo.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[key{kind, id}]
	if !ok {
		return recordrepo.Record{}, recordrepo.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *Repo) ListByTrip(ctx context.Context, kind domain.RecordKind, tripID domain.TripID) ([]recordrepo.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]recordrepo.Record, 0)
	for k, rec := range r.byID {
		if k.kind == kind && rec.TripID == tripID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) Update(ctx context.Context, rec recordrepo.Record) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{rec.Kind, rec.ID}
	existing, ok := r.byID[k]
	if !ok {
		return recordrepo.ErrNotFound
	}
	existing.Fields = append([]byte(nil), rec.Fields...)
	existing.UpdatedAt = rec.UpdatedAt
	r.byID[k] = existing
	return nil
}

func (r *Repo) Delete(ctx context.Context, kind domain.RecordKind, id domain.RecordID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, key{kind, id})
	return nil
}

func cloneRecord(rec recordrepo.Record) recordrepo.Record {
	cp := rec
	cp.Fields = append([]byte(nil), rec.Fields...)
	return cp
}
