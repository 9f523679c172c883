package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema creates the slot table. Also shipped as a migration file.
const PostgresSchema = `CREATE TABLE IF NOT EXISTS kv_slots (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSlot stores documents in the kv_slots table.
type PostgresSlot struct {
	db *pgxpool.Pool
}

func NewPostgresSlot(db *pgxpool.Pool) *PostgresSlot {
	return &PostgresSlot{db: db}
}

// Migrate creates kv_slots if it does not exist yet.
func (s *PostgresSlot) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, PostgresSchema)
	return err
}

func (s *PostgresSlot) Get(ctx context.Context, key string) ([]byte, error) {
	var raw string
	err := s.db.QueryRow(ctx, `SELECT value::text FROM kv_slots WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotEmpty
		}
		return nil, err
	}
	return []byte(raw), nil
}

func (s *PostgresSlot) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, string(value))
	return err
}

func (s *PostgresSlot) Close() error {
	s.db.Close()
	return nil
}
