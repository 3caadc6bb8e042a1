package vecstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/pkg/timeutil"
)

func init() {
	Register("pgvector", func(db *sql.DB) (Store, error) {
		if db == nil {
			return nil, fmt.Errorf("pgvector store requires a database handle")
		}
		return NewPgVector(db), nil
	})
}

// pgvectorStore keeps one logical collection per category in shared tables.
// Collections pin their dimension in vector_collections; index_entries rows
// carry a BIGSERIAL ord that survives ON CONFLICT updates, which is what
// Query uses to break distance ties deterministically.
type pgvectorStore struct {
	db *sql.DB
}

func NewPgVector(db *sql.DB) Store {
	return &pgvectorStore{db: db}
}

func (s *pgvectorStore) Upsert(ctx context.Context, collection string, entries []model.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	dim, err := validateEntries(entries)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.ensureCollection(ctx, tx, collection, dim); err != nil {
		return err
	}
	if err := s.upsertEntries(ctx, tx, collection, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *pgvectorStore) ReplaceDocument(ctx context.Context, collection string, documentID string, entries []model.IndexEntry) error {
	dim, err := validateDocumentEntries(documentID, entries)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if len(entries) > 0 {
		if err := s.ensureCollection(ctx, tx, collection, dim); err != nil {
			return err
		}
		if err := s.upsertEntries(ctx, tx, collection, entries); err != nil {
			return err
		}
	}
	const prune = `DELETE FROM index_entries WHERE collection_name = $1 AND document_id = $2 AND seq >= $3`
	if _, err := tx.ExecContext(ctx, prune, collection, documentID, len(entries)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *pgvectorStore) Query(ctx context.Context, collection string, vector []float32, topK int) ([]model.ScoredEntry, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", appErr.ErrInvalidQueryParams, topK)
	}
	dim, err := s.collectionDimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query vector has dimension %d, collection %s holds %d", appErr.ErrInvalidQueryParams, len(vector), collection, dim)
	}
	const query = `
		SELECT document_id, seq, content, embedding <=> $2 AS distance
		FROM index_entries
		WHERE collection_name = $1
		ORDER BY embedding <=> $2, ord
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, collection, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ScoredEntry
	for rows.Next() {
		var item model.ScoredEntry
		var distance float64
		if err := rows.Scan(&item.DocumentID, &item.Seq, &item.Content, &distance); err != nil {
			return nil, err
		}
		item.Distance = float32(distance)
		results = append(results, item)
	}
	return results, rows.Err()
}

func (s *pgvectorStore) Sample(ctx context.Context, collection string, limit int) ([]model.IndexEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", appErr.ErrInvalidQueryParams, limit)
	}
	if _, err := s.collectionDimension(ctx, collection); err != nil {
		return nil, err
	}
	const query = `
		SELECT document_id, seq, content
		FROM index_entries
		WHERE collection_name = $1
		ORDER BY document_id, seq
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, collection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.IndexEntry
	for rows.Next() {
		var item model.IndexEntry
		if err := rows.Scan(&item.DocumentID, &item.Seq, &item.Content); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (s *pgvectorStore) DeleteDocument(ctx context.Context, collection string, documentID string) error {
	const query = `DELETE FROM index_entries WHERE collection_name = $1 AND document_id = $2`
	_, err := s.db.ExecContext(ctx, query, collection, documentID)
	return err
}

func (s *pgvectorStore) DropCollection(ctx context.Context, collection string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_entries WHERE collection_name = $1`, collection); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_collections WHERE name = $1`, collection); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *pgvectorStore) collectionDimension(ctx context.Context, collection string) (int, error) {
	const query = `SELECT dimension FROM vector_collections WHERE name = $1`
	var dim int
	if err := s.db.QueryRowContext(ctx, query, collection).Scan(&dim); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("%w: %s", appErr.ErrCollectionNotFound, collection)
		}
		return 0, err
	}
	return dim, nil
}

func (s *pgvectorStore) ensureCollection(ctx context.Context, tx *sql.Tx, collection string, dim int) error {
	const insert = `
		INSERT INTO vector_collections (name, dimension, ctime)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, insert, collection, dim, timeutil.NowUnix()); err != nil {
		return err
	}
	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT dimension FROM vector_collections WHERE name = $1`, collection).Scan(&stored); err != nil {
		return err
	}
	if stored != dim {
		return fmt.Errorf("%w: batch dimension %d, collection %s holds %d", appErr.ErrInvalid, dim, collection, stored)
	}
	return nil
}

func (s *pgvectorStore) upsertEntries(ctx context.Context, tx *sql.Tx, collection string, entries []model.IndexEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (collection_name, document_id, seq, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection_name, document_id, seq) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, collection, entry.DocumentID, entry.Seq, entry.Content, pgvector.NewVector(entry.Embedding)); err != nil {
			return err
		}
	}
	return nil
}
