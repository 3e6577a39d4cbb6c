package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store over the documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get retrieves a document by collection and id.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	doc := &Document{Key: id}
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Set writes the full document body, creating or overwriting it.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		collection, id, fields,
	)
	return err
}

// Update merges dot-path fields into an existing document inside a
// read-modify-write transaction.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateInTx(ctx, tx, collection, id, fields); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func updateInTx(ctx context.Context, tx pgx.Tx, collection, id string, fields map[string]interface{}) error {
	var data map[string]interface{}
	err := tx.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	data = ApplyFields(data, fields)
	_, err = tx.Exec(ctx,
		`UPDATE documents SET data = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		collection, id, data,
	)
	return err
}

// Query returns all documents in a collection matching the equality
// filters, ordered by id. Filters use JSONB containment.
func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1`
	args := []interface{}{collection}

	for _, f := range filters {
		fragment, err := json.Marshal(containment(f.Path, f.Value))
		if err != nil {
			return nil, fmt.Errorf("marshal filter %q: %w", f.Path, err)
		}
		args = append(args, string(fragment))
		query += fmt.Sprintf(" AND data @> $%d", len(args))
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc := Document{}
		if err := rows.Scan(&doc.Key, &doc.Data); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Batch returns a new batch writer over this store.
func (s *PostgresStore) Batch() BatchWriter {
	return &pgBatch{store: s}
}

type batchOpKind int

const (
	opSet batchOpKind = iota
	opUpdate
	opDelete
)

type batchOp struct {
	kind       batchOpKind
	collection string
	id         string
	fields     map[string]interface{}
}

type pgBatch struct {
	store   *PostgresStore
	pending []batchOp
	commits int
}

func (b *pgBatch) Set(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return b.queue(ctx, batchOp{kind: opSet, collection: collection, id: id, fields: fields})
}

func (b *pgBatch) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return b.queue(ctx, batchOp{kind: opUpdate, collection: collection, id: id, fields: fields})
}

func (b *pgBatch) Delete(ctx context.Context, collection, id string) error {
	return b.queue(ctx, batchOp{kind: opDelete, collection: collection, id: id})
}

func (b *pgBatch) queue(ctx context.Context, op batchOp) error {
	b.pending = append(b.pending, op)
	if len(b.pending) >= MaxBatchOps {
		return b.flush(ctx)
	}
	return nil
}

// Commit flushes the remaining partial batch and reports the total
// number of commits performed.
func (b *pgBatch) Commit(ctx context.Context) (int, error) {
	if len(b.pending) > 0 {
		if err := b.flush(ctx); err != nil {
			return b.commits, err
		}
	}
	return b.commits, nil
}

func (b *pgBatch) flush(ctx context.Context) error {
	tx, err := b.store.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, op := range b.pending {
		switch op.kind {
		case opSet:
			_, err = tx.Exec(ctx,
				`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
				 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
				op.collection, op.id, op.fields,
			)
		case opUpdate:
			err = updateInTx(ctx, tx, op.collection, op.id, op.fields)
		case opDelete:
			_, err = tx.Exec(ctx,
				`DELETE FROM documents WHERE collection = $1 AND id = $2`,
				op.collection, op.id,
			)
		}
		if err != nil {
			return fmt.Errorf("batch op on %s/%s: %w", op.collection, op.id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	b.pending = b.pending[:0]
	b.commits++
	return nil
}
