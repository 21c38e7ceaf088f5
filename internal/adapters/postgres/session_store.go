// Package postgres provides a PostgreSQL-backed KeyValueStore for the persisted session.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kec/eventhub/internal/data/pgxutil"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/ports"
)

var _ ports.KeyValueStore = (*SessionStore)(nil)

const defaultTable = "session_kv"

// SessionStore keeps session records in a two-column table.
// SetMany upserts every entry inside one transaction.
type SessionStore struct {
	DB    *sql.DB
	table string
}

// NewSessionStore creates a store over db using the session_kv table.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{DB: db, table: defaultTable}
}

// EnsureSchema creates the backing table when it does not exist.
func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create %s: %w", s.table, apperrors.MapDBError(err))
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}

	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM `+s.table+` WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, apperrors.MapDBError(err))
	}
	return value, true, nil
}

func (s *SessionStore) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	q := `INSERT INTO ` + s.table + ` (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	err := pgxutil.WithSQLTx(ctx, s.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			for k, v := range entries {
				if k == "" {
					return errors.New("key cannot be empty")
				}
				if _, err := tx.ExecContext(ctx, q, k, v); err != nil {
					return fmt.Errorf("upsert %s: %w", k, err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("save session records: %w", apperrors.MapDBError(err))
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	err := pgxutil.WithSQLTx(ctx, s.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			for _, k := range keys {
				if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE key = $1`, k); err != nil {
					return fmt.Errorf("delete %s: %w", k, err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("delete session records: %w", apperrors.MapDBError(err))
	}
	return nil
}
