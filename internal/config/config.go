package config

import (
	"strings"

	"taskboard/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppPort string

	// Storage
	StorageDriver string
	StorageKey    string // ключ слота, в котором лежит весь список
	DataDir       string
	SQLitePath    string
	DatabaseURL   string
	MySQLDSN      string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Auth: пустой AUTH_PASSWORD = API открыт
	JWTSecret    string
	AuthPassword string

	// Limits
	APIRateLimit         int
	APIRateWindowSeconds int
	AllowedOrigin        string

	LogLevel string
	LogJSON  bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", DriverFile)
	v.SetDefault("STORAGE_KEY", "todo-app-tasks")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("SQLITE_PATH", "data/taskboard.db")
	v.SetDefault("REDIS_PREFIX", "taskboard")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("API_RATE_LIMIT", 120)
	v.SetDefault("API_RATE_WINDOW_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
}

// Загрузка конфига: .env -> YAML (CONFIG_FILE) -> переменные окружения
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("config file not loaded, using env only", "path", path, "error", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		logger.Fatal("invalid config", "error", err)
	}
	return cfg
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AppPort:              v.GetString("APP_PORT"),
		StorageDriver:        strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		StorageKey:           v.GetString("STORAGE_KEY"),
		DataDir:              v.GetString("DATA_DIR"),
		SQLitePath:           v.GetString("SQLITE_PATH"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		MySQLDSN:             v.GetString("MYSQL_DSN"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		RedisPrefix:          v.GetString("REDIS_PREFIX"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		AuthPassword:         v.GetString("AUTH_PASSWORD"),
		APIRateLimit:         v.GetInt("API_RATE_LIMIT"),
		APIRateWindowSeconds: v.GetInt("API_RATE_WINDOW_SECONDS"),
		AllowedOrigin:        v.GetString("ALLOWED_ORIGIN"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogJSON:              v.GetBool("LOG_JSON"),
	}
}

// AuthEnabled - включена ли авторизация по паролю
func (c *Config) AuthEnabled() bool {
	return c.AuthPassword != ""
}
