package config

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) validate() error {
	if c.StorageKey == "" {
		return fmt.Errorf("%w: STORAGE_KEY is empty", ErrInvalidConfig)
	}

	switch c.StorageDriver {
	case DriverFile:
		if c.DataDir == "" {
			return fmt.Errorf("%w: DATA_DIR is not set", ErrInvalidConfig)
		}
	case DriverMemory:
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is not set", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is not set", ErrInvalidConfig)
		}
	case DriverMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("%w: MYSQL_DSN is not set", ErrInvalidConfig)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is not set", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalidConfig, c.StorageDriver)
	}

	// токен без секрета подписать нечем
	if c.AuthEnabled() && c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required when AUTH_PASSWORD is set", ErrInvalidConfig)
	}
	if c.APIRateLimit <= 0 || c.APIRateWindowSeconds <= 0 {
		return fmt.Errorf("%w: rate limit and window must be positive", ErrInvalidConfig)
	}
	return nil
}
