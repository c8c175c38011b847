package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteRepository keeps documents in the app_document table of a SQLite
// database opened by database.OpenSQLite.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var document string
	err := r.db.QueryRowContext(ctx, "SELECT document FROM app_document WHERE key = ?", key).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return []byte(document), nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, document []byte) error {
	query := `INSERT INTO app_document (key, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, key, string(document), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM app_document WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}
