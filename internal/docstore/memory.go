package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process. It backs tests and local runs.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*Document),
		now:         time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) List(_ context.Context, collection string, filters ...Filter) ([]*Document, error) {
	normalized := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if err := f.validate(); err != nil {
			return nil, err
		}
		value, err := normalize(f.Value)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, Filter{Field: f.Field, Op: f.Op, Value: value})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		if matchesAll(doc, normalized) {
			docs = append(docs, cloneDocument(doc))
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	return s.Insert(ctx, collection, uuid.NewString(), data)
}

func (s *MemoryStore) Insert(_ context.Context, collection, id string, data map[string]any) (*Document, error) {
	return s.write(collection, id, data, false)
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, data map[string]any) (*Document, error) {
	return s.write(collection, id, data, true)
}

func (s *MemoryStore) write(collection, id string, data map[string]any, replace bool) (*Document, error) {
	normalized, err := normalizeMap(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*Document)
		s.collections[collection] = docs
	}

	now := s.now()
	createdAt := now
	if existing, ok := docs[id]; ok {
		if !replace {
			return nil, ErrAlreadyExists
		}
		createdAt = existing.CreatedAt
	}
	doc := &Document{ID: id, Data: normalized, CreatedAt: createdAt, UpdatedAt: now}
	docs[id] = doc
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func matchesAll(doc *Document, filters []Filter) bool {
	for _, f := range filters {
		field, ok := doc.Data[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(field, f.Value) {
				return false
			}
		case OpArrayContains:
			items, ok := field.([]any)
			if !ok || !containsValue(items, f.Value) {
				return false
			}
		}
	}
	return true
}

func containsValue(items []any, value any) bool {
	for _, item := range items {
		if reflect.DeepEqual(item, value) {
			return true
		}
	}
	return false
}

func cloneDocument(doc *Document) *Document {
	data, err := normalizeMap(doc.Data)
	if err != nil {
		data = map[string]any{}
	}
	return &Document{ID: doc.ID, Data: data, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt}
}
