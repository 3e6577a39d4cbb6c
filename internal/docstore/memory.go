package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local development.
// Batch writers share the 400-op flush behaviour of the Postgres store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]interface{})}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Key: id, Data: CloneData(data)}, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(collection, id, fields)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(collection, id, fields)
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var docs []Document
	for _, id := range ids {
		data := s.collections[collection][id]
		if matchesFilters(data, filters) {
			docs = append(docs, Document{Key: id, Data: CloneData(data)})
		}
	}
	return docs, nil
}

func (s *MemoryStore) Batch() BatchWriter {
	return &memoryBatch{store: s}
}

func (s *MemoryStore) setLocked(collection, id string, fields map[string]interface{}) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	s.collections[collection][id] = CloneData(fields)
}

func (s *MemoryStore) updateLocked(collection, id string, fields map[string]interface{}) error {
	data, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	s.collections[collection][id] = ApplyFields(data, CloneData(fields))
	return nil
}

func matchesFilters(data map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		value, ok := LookupPath(data, f.Path)
		if !ok || !reflect.DeepEqual(value, f.Value) {
			return false
		}
	}
	return true
}

type memoryBatch struct {
	store   *MemoryStore
	pending []batchOp
	commits int
}

func (b *memoryBatch) Set(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return b.queue(ctx, batchOp{kind: opSet, collection: collection, id: id, fields: fields})
}

func (b *memoryBatch) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return b.queue(ctx, batchOp{kind: opUpdate, collection: collection, id: id, fields: fields})
}

func (b *memoryBatch) Delete(ctx context.Context, collection, id string) error {
	return b.queue(ctx, batchOp{kind: opDelete, collection: collection, id: id})
}

func (b *memoryBatch) queue(ctx context.Context, op batchOp) error {
	b.pending = append(b.pending, op)
	if len(b.pending) >= MaxBatchOps {
		return b.flush()
	}
	return nil
}

func (b *memoryBatch) Commit(ctx context.Context) (int, error) {
	if len(b.pending) > 0 {
		if err := b.flush(); err != nil {
			return b.commits, err
		}
	}
	return b.commits, nil
}

func (b *memoryBatch) flush() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for _, op := range b.pending {
		switch op.kind {
		case opSet:
			b.store.setLocked(op.collection, op.id, op.fields)
		case opUpdate:
			if err := b.store.updateLocked(op.collection, op.id, op.fields); err != nil {
				return err
			}
		case opDelete:
			delete(b.store.collections[op.collection], op.id)
		}
	}
	b.pending = b.pending[:0]
	b.commits++
	return nil
}
