package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunajoyas/catalogo/internal/db"
)

// PostgresStore keeps every collection in one JSONB table keyed by
// (collection, id).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	doc := &Document{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc.Data, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	var sql strings.Builder
	sql.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range filters {
		if err := f.validate(); err != nil {
			return nil, err
		}
		operand := f.Value
		if f.Op == OpArrayContains {
			operand = []any{f.Value}
		}
		encoded, err := json.Marshal(operand)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter value: %w", err)
		}

		fieldArg := len(args) + 1
		valueArg := len(args) + 2
		args = append(args, f.Field, string(encoded))
		if f.Op == OpArrayContains {
			fmt.Fprintf(&sql, ` AND data -> $%d::text @> $%d::text::jsonb`, fieldArg, valueArg)
		} else {
			fmt.Fprintf(&sql, ` AND data -> $%d::text = $%d::text::jsonb`, fieldArg, valueArg)
		}
	}
	sql.WriteString(` ORDER BY created_at, id`)

	rows, err := s.pool.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return docs, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	return s.Insert(ctx, collection, uuid.NewString(), data)
}

func (s *PostgresStore) Insert(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	normalized, err := normalizeMap(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{ID: id}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
		RETURNING data, created_at, updated_at`,
		collection, id, normalized,
	).Scan(&doc.Data, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	normalized, err := normalizeMap(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{ID: id}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = $4
		RETURNING data, created_at, updated_at`,
		collection, id, normalized, time.Now().UTC(),
	).Scan(&doc.Data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
