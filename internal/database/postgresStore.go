package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db        *sql.DB
	namespace string
}

func NewPostgresStore(db *sql.DB, namespace string) *PostgresStore {
	return &PostgresStore{db: db, namespace: namespace}
}

func (r *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`

	var value string
	err := r.db.QueryRowContext(ctx, query, r.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (r *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, r.namespace, key, value, time.Now()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (r *PostgresStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE namespace = $1 AND key = $2`
	if _, err := r.db.ExecContext(ctx, query, r.namespace, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *PostgresStore) Clear(ctx context.Context) error {
	query := `DELETE FROM kv_store WHERE namespace = $1`
	if _, err := r.db.ExecContext(ctx, query, r.namespace); err != nil {
		return fmt.Errorf("clear namespace %s: %w", r.namespace, err)
	}
	return nil
}
