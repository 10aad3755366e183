// Package docstore provides a small document-database abstraction with
// Firestore, Postgres and in-memory implementations.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Op is a query comparison operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

// Filter restricts a List call to documents whose Field matches Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains builds an array membership filter.
func ArrayContains(field string, value any) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// Document is a stored snapshot. CreatedAt and UpdatedAt are assigned by
// the backend, never by callers.
type Document struct {
	ID        string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the capability every backend implements. Writes read the
// document back so callers always see server-assigned fields.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string, filters ...Filter) ([]*Document, error)
	Create(ctx context.Context, collection string, data map[string]any) (*Document, error)
	// Insert stores data under id only when no document has that id yet;
	// otherwise it fails with ErrAlreadyExists.
	Insert(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	Set(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

type Config struct {
	Provider        string
	ProjectID       string
	CredentialsJSON string
	DatabaseURL     string
}

// NewStore opens the configured backend.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case "", "memory":
		return NewMemoryStore(), nil
	case "firestore":
		return NewFirestoreStore(ctx, cfg.ProjectID, cfg.CredentialsJSON)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", cfg.Provider)
	}
}

func (f Filter) validate() error {
	if f.Field == "" {
		return fmt.Errorf("filter field is required")
	}
	switch f.Op {
	case OpEqual, OpArrayContains:
		return nil
	default:
		return fmt.Errorf("unsupported filter operator: %s", f.Op)
	}
}

// normalize round-trips a value through JSON so every backend compares and
// returns the same shapes (float64 numbers, []any, map[string]any).
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeMap(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	out, err := normalize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return m, nil
}
