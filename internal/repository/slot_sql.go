package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// sqlDialect holds the statements that differ between MySQL and SQLite.
type sqlDialect struct {
	driver string
	schema string
	upsert string
}

var (
	mysqlDialect = sqlDialect{
		driver: "mysql",
		schema: `CREATE TABLE IF NOT EXISTS kv_slots (
	k          VARCHAR(191) PRIMARY KEY,
	v          LONGBLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,
		upsert: `INSERT INTO kv_slots (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`,
	}
	sqliteDialect = sqlDialect{
		driver: "sqlite3",
		schema: `CREATE TABLE IF NOT EXISTS kv_slots (
	k          TEXT PRIMARY KEY,
	v          BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		upsert: `INSERT INTO kv_slots (k, v) VALUES (?, ?)
	ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = CURRENT_TIMESTAMP`,
	}
)

// SQLSlot is a kv_slots table behind database/sql (MySQL or SQLite).
type SQLSlot struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewMySQLSlot opens dsn, pings and migrates.
func NewMySQLSlot(ctx context.Context, dsn string) (*SQLSlot, error) {
	return openSQLSlot(ctx, mysqlDialect, dsn)
}

// NewSQLiteSlot opens (creating if needed) the database file at path.
func NewSQLiteSlot(ctx context.Context, path string) (*SQLSlot, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	return openSQLSlot(ctx, sqliteDialect, path)
}

func openSQLSlot(ctx context.Context, d sqlDialect, dsn string) (*SQLSlot, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	if d.driver == "sqlite3" {
		// один писатель, иначе "database is locked"
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate kv_slots: %w", err)
	}
	return &SQLSlot{db: db, dialect: d}, nil
}

func (s *SQLSlot) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_slots WHERE k = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotEmpty
		}
		return nil, err
	}
	return v, nil
}

func (s *SQLSlot) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value)
	return err
}

func (s *SQLSlot) Close() error {
	return s.db.Close()
}
