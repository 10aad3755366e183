package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lunajoyas/catalogo/internal/logging"
	"github.com/lunajoyas/catalogo/internal/repository"
)

// Resource is the admin CRUD surface of one catalog collection. Every
// successful write runs onWrite so derived views can be refreshed.
type Resource[T any] struct {
	kind     string
	coll     *repository.Collection[T]
	validate func(*T) error
	idOf     func(*T) string
	onWrite  func(ctx context.Context)
	logger   *slog.Logger

	// beforeDelete may refuse a delete, e.g. while other documents
	// still reference id.
	beforeDelete func(ctx context.Context, id string) error
}

func newResource[T any](
	kind string,
	coll *repository.Collection[T],
	validate func(*T) error,
	idOf func(*T) string,
	onWrite func(ctx context.Context),
	logger *slog.Logger,
) *Resource[T] {
	return &Resource[T]{
		kind:     kind,
		coll:     coll,
		validate: validate,
		idOf:     idOf,
		onWrite:  onWrite,
		logger:   logger,
	}
}

func (r *Resource[T]) Kind() string {
	return r.kind
}

func (r *Resource[T]) List(ctx context.Context) ([]*T, error) {
	items, err := r.coll.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.kind, err)
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	item, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, notFound(r.kind, id, err)
	}
	return item, nil
}

// Create validates entity and stores it under its own id when it has one,
// or under a generated id otherwise.
func (r *Resource[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, UserError{Message: r.kind + " body is required"}
	}
	if err := r.validate(entity); err != nil {
		return nil, err
	}

	var (
		stored *T
		err    error
	)
	id := strings.TrimSpace(r.idOf(entity))
	if id != "" {
		stored, err = r.coll.Insert(ctx, id, entity)
	} else {
		stored, err = r.coll.Create(ctx, entity)
	}
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, UserError{Message: fmt.Sprintf("%s %q already exists", r.kind, id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.kind, err)
	}

	r.written(ctx, "created", r.idOf(stored))
	return stored, nil
}

func (r *Resource[T]) Update(ctx context.Context, id string, entity *T) (*T, error) {
	if entity == nil {
		return nil, UserError{Message: r.kind + " body is required"}
	}
	if err := r.validate(entity); err != nil {
		return nil, err
	}

	stored, err := r.coll.Update(ctx, id, entity)
	if err != nil {
		return nil, notFound(r.kind, id, err)
	}

	r.written(ctx, "updated", id)
	return stored, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if r.beforeDelete != nil {
		if err := r.beforeDelete(ctx, id); err != nil {
			return err
		}
	}
	if err := r.coll.Delete(ctx, id); err != nil {
		return notFound(r.kind, id, err)
	}
	r.written(ctx, "deleted", id)
	return nil
}

func (r *Resource[T]) written(ctx context.Context, action, id string) {
	logging.FromContext(ctx, r.logger).InfoContext(ctx, r.kind+" "+action, "resource", r.kind, "id", id)
	if r.onWrite != nil {
		r.onWrite(ctx)
	}
}
