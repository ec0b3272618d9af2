package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "/blog/v1", cfg.BasePath)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
	assert.Equal(t, "mongodb://127.0.0.1:27017", cfg.DatabaseURI)
	assert.Equal(t, "blog", cfg.DBName)
	assert.Equal(t, 5, cfg.UploadMaxMB)
	assert.Equal(t, "@every 30m", cfg.UploadSweepSpec)
	assert.Equal(t, filepath.Join("public", "uploads"), cfg.UploadDir())
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoadFileThenEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
app:
  port: "9000"
  base_path: /api/
  cors_origin:
    - https://a.example
    - https://b.example
database:
  driver: sqlite
  uri: "file::memory:"
upload:
  max_mb: 2
`), 0o644))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("PORT", "9100")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "7")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.AppPort, "env wins over file")
	assert.Equal(t, "/api", cfg.BasePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 2, cfg.UploadMaxMB)
	assert.Equal(t, 7, cfg.RateLimitPerMinute)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadCommaSeparatedOrigins(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("CORS_ORIGIN", " http://x.test , ,http://y.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.test", "http://y.test"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := AppConfig{AppPort: "8080", DBDriver: DriverSQLite, DatabaseURI: "file::memory:", UploadMaxMB: 1}
	require.NoError(t, base.Validate())

	bad := base
	bad.DBDriver = "oracle"
	assert.ErrorContains(t, bad.Validate(), "DB_DRIVER")

	bad = base
	bad.UploadMaxMB = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, bad.Validate(), "TIMEZONE")
}

func TestNormalizeBasePath(t *testing.T) {
	assert.Equal(t, "/blog/v1", normalizeBasePath("blog/v1/"))
	assert.Equal(t, "", normalizeBasePath("/"))
	assert.Equal(t, "", normalizeBasePath(""))
}
