package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
type AppConfig struct {
	AppPort  string
	BasePath string
	// Gin framework configuration
	GinMode string
	GinPath string
	// CORS allow-list; a single "*" allows every origin
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Persistence
	DBDriver    string
	DatabaseURI string
	DBName      string
	// Redis backs the rate limiter and the publication cache when RedisAddr is set
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int
	// Uploads
	PublicDir       string
	UploadMaxMB     int
	UploadSweepSpec string
	// Event publishing is disabled when RabbitMQURL is empty
	RabbitMQURL      string
	RabbitMQExchange string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	Timezone      string
}

// Supported values for DB_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type binding struct {
	key string
	env string
	def any
}

// Precedence: defaults -> config file -> environment variables.
var bindings = []binding{
	{"app.port", "PORT", "8080"},
	{"app.base_path", "BASE_PATH", "/blog/v1"},
	{"app.cors_origin", "CORS_ORIGIN", "http://localhost:5173"},
	{"app.rate_limit_per_minute", "RATE_LIMIT_PER_MINUTE", 100},
	{"app.timezone", "TIMEZONE", "Local"},
	{"gin.mode", "GIN_MODE", "release"},
	{"gin.log_path", "GIN_PATH", "logs/go_gin.log"},
	{"database.driver", "DB_DRIVER", DriverMongo},
	{"database.uri", "DATABASE_URI", "mongodb://127.0.0.1:27017"},
	{"database.name", "DB_NAME", "blog"},
	{"redis.addr", "REDIS_ADDR", ""},
	{"redis.password", "REDIS_PASSWORD", ""},
	{"redis.db", "REDIS_DB", 0},
	{"redis.cache_ttl_seconds", "CACHE_TTL_SECONDS", 60},
	{"upload.public_dir", "PUBLIC_DIR", "./public"},
	{"upload.max_mb", "UPLOAD_MAX_MB", 5},
	{"upload.sweep_spec", "UPLOAD_SWEEP_SPEC", "@every 30m"},
	{"rabbitmq.url", "RABBITMQ_URL", ""},
	{"rabbitmq.exchange", "RABBITMQ_EXCHANGE", "publications"},
	{"log.level", "LOG_LEVEL", "info"},
	{"log.path", "LOG_PATH", ""},
	{"log.max_size_mb", "LOG_MAX_SIZE_MB", 100},
	{"log.max_backups", "LOG_MAX_BACKUPS", 3},
	{"log.max_age_days", "LOG_MAX_AGE_DAYS", 7},
	{"log.compress", "LOG_COMPRESS", false},
}

// Load reads .env (when present), the optional config file named by CONFIG_FILE
// and the environment, and returns the validated configuration.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("ignoring unreadable .env file: %v", err)
	}

	v := viper.New()
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return AppConfig{}, fmt.Errorf("bind %s: %w", b.env, err)
		}
	}

	file := os.Getenv("CONFIG_FILE")
	if file == "" {
		file = filepath.Join("config", "config.yaml")
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("read config file %s: %w", file, err)
	}

	cfg := AppConfig{
		AppPort:            v.GetString("app.port"),
		BasePath:           normalizeBasePath(v.GetString("app.base_path")),
		GinMode:            strings.ToLower(v.GetString("gin.mode")),
		GinPath:            v.GetString("gin.log_path"),
		AllowedOrigins:     readList(v, "app.cors_origin"),
		RateLimitPerMinute: v.GetInt("app.rate_limit_per_minute"),
		DBDriver:           strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:        v.GetString("database.uri"),
		DBName:             v.GetString("database.name"),
		RedisAddr:          v.GetString("redis.addr"),
		RedisPassword:      v.GetString("redis.password"),
		RedisDB:            v.GetInt("redis.db"),
		CacheTTLSeconds:    v.GetInt("redis.cache_ttl_seconds"),
		PublicDir:          v.GetString("upload.public_dir"),
		UploadMaxMB:        v.GetInt("upload.max_mb"),
		UploadSweepSpec:    v.GetString("upload.sweep_spec"),
		RabbitMQURL:        v.GetString("rabbitmq.url"),
		RabbitMQExchange:   v.GetString("rabbitmq.exchange"),
		LogLevel:           strings.ToLower(v.GetString("log.level")),
		LogPath:            v.GetString("log.path"),
		LogMaxSizeMB:       v.GetInt("log.max_size_mb"),
		LogMaxBackups:      v.GetInt("log.max_backups"),
		LogMaxAgeDays:      v.GetInt("log.max_age_days"),
		LogCompress:        v.GetBool("log.compress"),
		Timezone:           v.GetString("app.timezone"),
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot boot with.
func (c AppConfig) Validate() error {
	if c.AppPort == "" {
		return errors.New("PORT is required")
	}
	switch c.DBDriver {
	case DriverMongo, DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURI == "" {
		return errors.New("DATABASE_URI is required")
	}
	if c.UploadMaxMB <= 0 {
		return errors.New("UPLOAD_MAX_MB must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty and "Local" mean the host zone.
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// UploadDir is where uploaded images are written; it lives under PublicDir so
// that the static handler serves it.
func (c AppConfig) UploadDir() string {
	return filepath.Join(c.PublicDir, "uploads")
}

// readList accepts either a comma-separated string (env) or a list (config file).
func readList(v *viper.Viper, key string) []string {
	if raw := v.GetString(key); raw != "" {
		return splitAndTrim(raw)
	}
	return v.GetStringSlice(key)
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func normalizeBasePath(p string) string {
	p = "/" + strings.Trim(strings.TrimSpace(p), "/")
	if p == "/" {
		return ""
	}
	return p
}
