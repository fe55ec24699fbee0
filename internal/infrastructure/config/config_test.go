package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"SKLAD_APP_NAME",
	"SKLAD_APP_ENV",
	"SKLAD_APP_PORT",
	"SKLAD_DATABASE_DRIVER",
	"SKLAD_DATABASE_PATH",
	"SKLAD_DATABASE_HOST",
	"SKLAD_DATABASE_PASSWORD",
	"SKLAD_DATABASE_MAX_OPEN_CONNS",
	"SKLAD_DATABASE_MAX_IDLE_CONNS",
	"SKLAD_SHOP_VAT_PAYER",
	"SKLAD_SHOP_NAME",
	"SKLAD_CASH_REGISTER_DAY_CLOSE_CEILING",
	"SKLAD_HTTP_ENABLED",
	"SKLAD_IDEMPOTENCY_DRIVER",
	"SKLAD_IDEMPOTENCY_TTL",
	"SKLAD_REDIS_HOST",
	"SKLAD_PRINTING_ENABLED",
	"SKLAD_TELEMETRY_ENABLED",
	"SKLAD_TELEMETRY_SAMPLING_RATIO",
	"SKLAD_TELEMETRY_DB_LOG_FULL_SQL",
	"SKLAD_TELEMETRY_COLLECTOR_ENDPOINT",
	"SKLAD_PROFILING_ENABLED",
}

// clearConfigEnv unsets every variable the tests touch and restores them afterwards
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "sklad-pos", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "sklad.db", cfg.Database.Path)
		assert.Equal(t, 1, cfg.Database.MaxOpenConns)
		assert.Equal(t, 1, cfg.Database.MaxIdleConns)
		assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowQueryThreshold)
		assert.True(t, cfg.CashRegister.DayCloseCeiling.Equal(decimal.NewFromInt(10_000_000)))
		assert.True(t, cfg.HTTP.Enabled)
		assert.False(t, cfg.Shop.VatPayer)
		assert.Equal(t, "cs-CZ", cfg.Shop.Locale)
		assert.True(t, cfg.Idempotency.Enabled)
		assert.Equal(t, CacheDriverMemory, cfg.Idempotency.Driver)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.False(t, cfg.Printing.Enabled)
		assert.Equal(t, 30*time.Second, cfg.Printing.Timeout)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.True(t, cfg.Telemetry.Insecure)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
		assert.Equal(t, time.Minute, cfg.Telemetry.MetricsInterval)
		assert.False(t, cfg.Profiling.Enabled)
	})

	t.Run("loads values from environment variables with SKLAD prefix", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_APP_NAME", "shop-test")
		t.Setenv("SKLAD_DATABASE_DRIVER", "postgres")
		t.Setenv("SKLAD_DATABASE_HOST", "db.local")
		t.Setenv("SKLAD_DATABASE_MAX_OPEN_CONNS", "20")
		t.Setenv("SKLAD_DATABASE_MAX_IDLE_CONNS", "4")
		t.Setenv("SKLAD_SHOP_VAT_PAYER", "true")
		t.Setenv("SKLAD_SHOP_NAME", "Drogerie U Lipy")
		t.Setenv("SKLAD_CASH_REGISTER_DAY_CLOSE_CEILING", "50000")
		t.Setenv("SKLAD_HTTP_ENABLED", "false")
		t.Setenv("SKLAD_IDEMPOTENCY_DRIVER", "Redis")
		t.Setenv("SKLAD_IDEMPOTENCY_TTL", "30m")
		t.Setenv("SKLAD_REDIS_HOST", "cache.local")
		t.Setenv("SKLAD_PRINTING_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shop-test", cfg.App.Name)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 20, cfg.Database.MaxOpenConns)
		assert.Equal(t, 4, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Shop.VatPayer)
		assert.Equal(t, "Drogerie U Lipy", cfg.Shop.Name)
		assert.True(t, cfg.CashRegister.DayCloseCeiling.Equal(decimal.NewFromInt(50000)))
		assert.False(t, cfg.HTTP.Enabled)
		assert.Equal(t, CacheDriverRedis, cfg.Idempotency.Driver)
		assert.Equal(t, 30*time.Minute, cfg.Idempotency.TTL)
		assert.Equal(t, "cache.local", cfg.Redis.Host)
		assert.True(t, cfg.Printing.Enabled)
	})

	t.Run("loads telemetry settings", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_TELEMETRY_ENABLED", "true")
		t.Setenv("SKLAD_TELEMETRY_SAMPLING_RATIO", "0.25")
		t.Setenv("SKLAD_TELEMETRY_COLLECTOR_ENDPOINT", "otel:4317")
		t.Setenv("SKLAD_PROFILING_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, "otel:4317", cfg.Telemetry.CollectorEndpoint)
		assert.True(t, cfg.Profiling.Enabled)
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})

	t.Run("rejects full SQL tracing in production", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_APP_ENV", "production")
		t.Setenv("SKLAD_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown idempotency driver", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_IDEMPOTENCY_DRIVER", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idempotency.driver")
	})

	t.Run("rejects non-numeric ceiling", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_CASH_REGISTER_DAY_CLOSE_CEILING", "lots")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "day_close_ceiling")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SKLAD_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("requires database.password for postgres in production", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SKLAD_APP_ENV", "production")
		t.Setenv("SKLAD_DATABASE_DRIVER", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("sqlite DSN is the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DriverSQLite, Path: "/var/lib/sklad/pos.db"}
		assert.Equal(t, "/var/lib/sklad/pos.db", cfg.DSN())
	})

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
}
