package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository keeps documents in the app_document table. The document
// column is TEXT so stored bytes come back unchanged.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var document string
	err := r.db.QueryRow(ctx, "SELECT document FROM app_document WHERE key = $1", key).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return []byte(document), nil
}

func (r *PostgresRepository) Put(ctx context.Context, key string, document []byte) error {
	query := `INSERT INTO app_document (key, document, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, query, key, string(document))
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM app_document WHERE key = $1", key)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}
