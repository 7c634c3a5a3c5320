package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "GRPC_PORT", "APP_ENV", "DB_ADAPTER", "DATABASE_URL", "SQLITE_FILE", "MIGRATE_ON_START",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_SSLMODE",
	"JWT_SECRET", "JWT_ISSUER", "JWT_TTL", "BCRYPT_COST", "CORS_ORIGINS", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "MAX_BODY_BYTES", "ADMIN_EMAIL", "ADMIN_PASSWORD", "ADMIN_NAME",
	"TRUST_PROXY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "3001", c.Port)
	require.Equal(t, "", c.GRPCPort, "explicitly empty GRPC_PORT disables gRPC")
	require.Equal(t, EnvDevelopment, c.AppEnv)
	require.True(t, c.Development())
	require.Equal(t, AdapterPostgres, c.DBAdapter)
	require.Equal(t, "postgres://permitdesk@localhost:5432/permitdesk?sslmode=disable", c.PostgresDSN)
	require.True(t, c.MigrateOnStart)
	require.Equal(t, 24*time.Hour, c.JWTTTL)
	require.Equal(t, 12, c.BcryptCost)
	require.Equal(t, []string{"http://localhost:3000"}, c.CORSOrigins)
	require.Equal(t, 20.0, c.RateLimitRPS)
	require.Equal(t, 40, c.RateLimitBurst)
	require.EqualValues(t, 1<<20, c.MaxBodyBytes)
	require.False(t, c.TrustProxy)
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("GRPC_PORT", "9191")
	t.Setenv("DB_ADAPTER", "sqlite")
	t.Setenv("SQLITE_FILE", "/tmp/p.db")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ADMIN_EMAIL", "root@x.com")
	t.Setenv("ADMIN_PASSWORD", "supersecret")
	t.Setenv("TRUST_PROXY", "true")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "8081", c.Port)
	require.Equal(t, "9191", c.GRPCPort)
	require.Equal(t, AdapterSQLite, c.DBAdapter)
	require.Equal(t, "/tmp/p.db", c.SQLiteFile)
	require.False(t, c.MigrateOnStart)
	require.Equal(t, 2*time.Hour, c.JWTTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	require.Equal(t, "root@x.com", c.AdminEmail)
	require.True(t, c.TrustProxy)
}

func TestDatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db:5432/app", c.PostgresDSN)
}

func TestPostgresDSNEscapesPassword(t *testing.T) {
	c := &Config{PostgresHost: "db", PostgresPort: "5432", PostgresUser: "app", PostgresPassword: "p@ss word", PostgresDB: "permits", PostgresSSLMode: "require"}
	dsn, err := c.BuildPostgresDSN()
	require.NoError(t, err)
	require.Equal(t, "postgres://app:p%40ss%20word@db:5432/permits?sslmode=require", dsn)
}

func TestValidationErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":            {"PORT": "abc"},
		"bad adapter":         {"DB_ADAPTER": "mongo"},
		"bad env":             {"APP_ENV": "staging"},
		"bad ttl":             {"JWT_TTL": "forever"},
		"negative ttl":        {"JWT_TTL": "-1h"},
		"bad cost":            {"BCRYPT_COST": "40"},
		"bad body":            {"MAX_BODY_BYTES": "0"},
		"admin half set":      {"ADMIN_EMAIL": "root@x.com"},
		"prod default secret": {"APP_ENV": "production"},
		"prod short secret":   {"APP_ENV": "production", "JWT_SECRET": "short"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := New()
			require.Error(t, err)
		})
	}
}

func TestProductionWithStrongSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	c, err := New()
	require.NoError(t, err)
	require.False(t, c.Development())
}
