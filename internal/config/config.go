// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	AdapterPostgres = "postgres"
	AdapterSQLite   = "sqlite"
	AdapterMemory   = "memory"

	defaultJWTSecret = "change-me-permitdesk-dev-secret"
)

type Config struct {
	Port     string
	GRPCPort string
	AppEnv   string

	DBAdapter      string
	PostgresDSN    string
	SQLiteFile     string
	MigrateOnStart bool

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	JWTSecret  string
	JWTIssuer  string
	JWTTTL     time.Duration
	BcryptCost int

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool
	MaxBodyBytes   int64

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Development reports whether error details may be returned to clients.
func (c *Config) Development() bool { return c.AppEnv == EnvDevelopment }

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// BuildPostgresDSN returns DATABASE_URL or assembles a URL from POSTGRES_* parts.
func (c *Config) BuildPostgresDSN() (string, error) {
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}
	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or DATABASE_URL must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=" + url.QueryEscape(c.PostgresSSLMode),
	}
	if c.PostgresPassword != "" {
		u.User = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	} else {
		u.User = url.User(c.PostgresUser)
	}
	return u.String(), nil
}

// New reads and validates the environment.
func New() (*Config, error) {
	c := &Config{
		Port:     getenv("PORT", "3001"),
		GRPCPort: os.Getenv("GRPC_PORT"),
		AppEnv:   strings.ToLower(getenv("APP_ENV", EnvDevelopment)),

		DBAdapter:   strings.ToLower(getenv("DB_ADAPTER", AdapterPostgres)),
		PostgresDSN: getenv("DATABASE_URL", ""),
		SQLiteFile:  getenv("SQLITE_FILE", "./data/permitdesk.db"),

		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getenv("POSTGRES_PORT", "5432"),
		PostgresUser:     getenv("POSTGRES_USER", "permitdesk"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getenv("POSTGRES_DB", "permitdesk"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: getenv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer: getenv("JWT_ISSUER", "permitdesk"),

		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),

		AdminEmail:    getenv("ADMIN_EMAIL", ""),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getenv("ADMIN_NAME", "Administrator"),
	}
	if _, set := os.LookupEnv("GRPC_PORT"); !set {
		c.GRPCPort = "9090"
	}
	c.GRPCPort = strings.TrimSpace(c.GRPCPort)

	var err error
	if c.MigrateOnStart, err = parseBool("MIGRATE_ON_START", true); err != nil {
		return nil, err
	}
	if c.TrustProxy, err = parseBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}
	if c.JWTTTL, err = parseDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if c.BcryptCost, err = parseInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if c.RateLimitBurst, err = parseInt("RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	if c.RateLimitRPS, err = parseFloat("RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	maxBody, err := parseInt("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}
	c.MaxBodyBytes = int64(maxBody)

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT: %s", c.Port)
	}
	if c.GRPCPort != "" {
		if _, err := strconv.Atoi(c.GRPCPort); err != nil {
			return fmt.Errorf("invalid GRPC_PORT: %s", c.GRPCPort)
		}
	}
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction, "test":
	default:
		return fmt.Errorf("invalid APP_ENV: %s", c.AppEnv)
	}

	switch c.DBAdapter {
	case AdapterPostgres:
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	case AdapterSQLite:
		if c.SQLiteFile == "" {
			return errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
		}
	case AdapterMemory:
	default:
		return fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}

	if c.AppEnv == EnvProduction && (c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32) {
		return errors.New("JWT_SECRET must be set to at least 32 characters in production")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("rate limit settings must not be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(key string, def bool) (bool, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return v, nil
}

func parseFloat(key string, def float64) (float64, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return v, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return v, nil
}
