package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"TUITION_APP_NAME",
	"TUITION_APP_ENV",
	"TUITION_APP_PORT",
	"TUITION_DATABASE_DRIVER",
	"TUITION_DATABASE_PATH",
	"TUITION_DATABASE_HOST",
	"TUITION_DATABASE_PORT",
	"TUITION_DATABASE_PASSWORD",
	"TUITION_DATABASE_SSLMODE",
	"TUITION_DATABASE_MAX_OPEN_CONNS",
	"TUITION_DATABASE_MAX_IDLE_CONNS",
	"TUITION_JWT_SECRET",
	"TUITION_SESSION_STORE",
	"TUITION_SESSION_TTL",
	"TUITION_FEE_CURRENCY",
	"TUITION_FEE_ALLOCATION_STRATEGY",
	"TUITION_TELEMETRY_SAMPLING_RATIO",
	"TUITION_TELEMETRY_LOGS_ENABLED",
	"TUITION_HTTP_CORS_ALLOW_ORIGINS",
	"TUITION_HTTP_IDEMPOTENCY_TTL",
	"TUITION_JWT_ACCESS_TOKEN_EXPIRATION",
	"TUITION_CONFIG",
}

// clearEnv blanks every managed variable; viper treats empty values as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "tuition-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "tuition", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
		assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
		assert.Equal(t, "INR", cfg.Fee.Currency)
		assert.Equal(t, "term_order", cfg.Fee.AllocationStrategy)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.False(t, cfg.Telemetry.LogsEnabled)
	})

	t.Run("loads values from environment variables with TUITION prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_APP_PORT", "9000")
		t.Setenv("TUITION_DATABASE_DRIVER", "sqlite")
		t.Setenv("TUITION_DATABASE_PATH", ":memory:")
		t.Setenv("TUITION_SESSION_STORE", "memory")
		t.Setenv("TUITION_SESSION_TTL", "30m")
		t.Setenv("TUITION_FEE_CURRENCY", "USD")
		t.Setenv("TUITION_TELEMETRY_LOGS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.LogsEnabled)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.DSN())
		assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
		assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
		assert.Equal(t, "USD", cfg.Fee.Currency)
	})

	t.Run("decodes durations and lists from the environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_HTTP_CORS_ALLOW_ORIGINS", "https://office.example,https://parents.example")
		t.Setenv("TUITION_HTTP_IDEMPOTENCY_TTL", "2h")
		t.Setenv("TUITION_JWT_ACCESS_TOKEN_EXPIRATION", "45m")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://office.example", "https://parents.example"}, cfg.HTTP.CORSAllowOrigins)
		assert.Equal(t, 2*time.Hour, cfg.HTTP.IdempotencyTTL)
		assert.Equal(t, 45*time.Minute, cfg.Session.TTL, "session ttl follows the token lifetime")
	})

	t.Run("reads an explicit config file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "tuition.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[app]
name = "branch-office"

[fee]
currency = "EUR"

[database]
max_open_conns = 40
`), 0o600))
		t.Setenv("TUITION_CONFIG", path)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "branch-office", cfg.App.Name)
		assert.Equal(t, "EUR", cfg.Fee.Currency)
		assert.Equal(t, 40, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown session store", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_SESSION_STORE", "cookie")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.store")
	})

	t.Run("rejects blank allocation strategy", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_FEE_ALLOCATION_STRATEGY", " ")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allocation_strategy")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("TUITION_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates sampling ratio range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TUITION_APP_ENV", "production")
		t.Setenv("TUITION_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("TUITION_DATABASE_PASSWORD", "secure-password")
		t.Setenv("TUITION_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"short jwt secret", "TUITION_JWT_SECRET", "short-secret", "jwt.secret must be at least 32 characters"},
		{"missing database password", "TUITION_DATABASE_PASSWORD", "", "database.password is required"},
		{"ssl disabled", "TUITION_DATABASE_SSLMODE", "disable", "database.sslmode cannot be 'disable'"},
		{"sqlite driver", "TUITION_DATABASE_DRIVER", "sqlite", "database.driver must be postgres"},
		{"memory sessions", "TUITION_SESSION_STORE", "memory", "session.store must be redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid postgres DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DriverSQLite, Path: "/var/lib/tuition/ledger.db"}
		assert.Equal(t, "/var/lib/tuition/ledger.db", cfg.DSN())
	})
}
