package repository

import (
	"context"
	"fmt"

	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/logger"
)

// Open builds the slot selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Slot, error) {
	log := logger.Component("storage")

	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn("using in-memory slot, tasks are lost on restart")
		return NewMemorySlot(), nil

	case config.DriverFile, "":
		s, err := NewFileSlot(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Info("file slot ready", "dir", cfg.DataDir)
		return s, nil

	case config.DriverRedis:
		client, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		log.Info("redis slot ready", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return NewRedisSlot(client, cfg.RedisPrefix), nil

	case config.DriverPostgres:
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s := NewPostgresSlot(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		log.Info("postgres slot ready")
		return s, nil

	case config.DriverMySQL:
		s, err := NewMySQLSlot(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		log.Info("mysql slot ready")
		return s, nil

	case config.DriverSQLite:
		s, err := NewSQLiteSlot(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		log.Info("sqlite slot ready", "path", cfg.SQLitePath)
		return s, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
