// Package repository maps catalog entities onto docstore collections.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lunajoyas/catalogo/internal/docstore"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
)

// Server-managed keys are stripped before writes and re-injected on reads.
const (
	fieldID        = "id"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// Collection is a typed view over one docstore collection. T must be a
// struct with `id`, `createdAt` and `updatedAt` JSON fields (or none of
// them).
type Collection[T any] struct {
	store docstore.Store
	name  string
}

func NewCollection[T any](store docstore.Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, c.wrap(err)
	}
	return decode[T](doc)
}

func (c *Collection[T]) List(ctx context.Context, filters ...docstore.Filter) ([]*T, error) {
	docs, err := c.store.List(ctx, c.name, filters...)
	if err != nil {
		return nil, c.wrap(err)
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		entity, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// Create stores entity under a generated id and returns the stored copy.
func (c *Collection[T]) Create(ctx context.Context, entity *T) (*T, error) {
	data, err := encode(entity)
	if err != nil {
		return nil, err
	}
	doc, err := c.store.Create(ctx, c.name, data)
	if err != nil {
		return nil, c.wrap(err)
	}
	return decode[T](doc)
}

// Insert stores entity under id and fails with ErrAlreadyExists when the
// id is taken.
func (c *Collection[T]) Insert(ctx context.Context, id string, entity *T) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: id is required", c.name)
	}
	data, err := encode(entity)
	if err != nil {
		return nil, err
	}
	doc, err := c.store.Insert(ctx, c.name, id, data)
	if err != nil {
		return nil, c.wrap(err)
	}
	return decode[T](doc)
}

// Put creates or replaces the entity stored under id.
func (c *Collection[T]) Put(ctx context.Context, id string, entity *T) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: id is required", c.name)
	}
	data, err := encode(entity)
	if err != nil {
		return nil, err
	}
	doc, err := c.store.Set(ctx, c.name, id, data)
	if err != nil {
		return nil, c.wrap(err)
	}
	return decode[T](doc)
}

// Update replaces an existing entity and fails with ErrNotFound otherwise.
func (c *Collection[T]) Update(ctx context.Context, id string, entity *T) (*T, error) {
	if _, err := c.store.Get(ctx, c.name, id); err != nil {
		return nil, c.wrap(err)
	}
	return c.Put(ctx, id, entity)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.wrap(c.store.Delete(ctx, c.name, id))
}

func (c *Collection[T]) wrap(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("%s: %w", c.name, ErrNotFound)
	case errors.Is(err, docstore.ErrAlreadyExists):
		return fmt.Errorf("%s: %w", c.name, ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", c.name, err)
}

func encode(entity any) (map[string]any, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}
	delete(data, fieldID)
	delete(data, fieldCreatedAt)
	delete(data, fieldUpdatedAt)
	return data, nil
}

func decode[T any](doc *docstore.Document) (*T, error) {
	data := make(map[string]any, len(doc.Data)+3)
	for k, v := range doc.Data {
		data[k] = v
	}
	data[fieldID] = doc.ID
	data[fieldCreatedAt] = formatTime(doc.CreatedAt)
	data[fieldUpdatedAt] = formatTime(doc.UpdatedAt)

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", doc.ID, err)
	}
	var entity T
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", doc.ID, err)
	}
	return &entity, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
