package store

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/shift/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service keyed by
// the value returned from keySelector. When a clone function is supplied,
// values are copied on the way in and out so callers never share state with
// the store.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
	clone       func(*T) *T
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, clone func(*T) *T) *MemoryStore[K, T] {
	if clone == nil {
		clone = func(v *T) *T { return v }
	}
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
		clone:       clone,
	}
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = s.clone(v)
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.clone(v), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// Filter returns records accepted by match, ordered by key text
func (s *MemoryStore[K, T]) Filter(match func(*T) bool) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		if match != nil && !match(v) {
			continue
		}
		out = append(out, s.clone(v))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessKey(s.keySelector(out[i]), s.keySelector(out[j]))
	})
	return out
}

// List returns all stored records.
func (s *MemoryStore[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	return s.Filter(nil), nil
}

func lessKey[K comparable](a, b K) bool {
	as, aok := any(a).(string)
	bs, bok := any(b).(string)
	if aok && bok {
		return as < bs
	}
	return false
}
