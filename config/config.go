// Package config provides configuration management for the CookEase API.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting:
// every problem is gathered into one error so a misconfigured deployment is fixed in a
// single pass instead of one restart per missing variable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// `go-multierror` accumulates the individual configuration problems.
	"github.com/hashicorp/go-multierror"
)

// DatabasePools holds configuration for the two PostgreSQL connection pools.
// AppPool serves request handlers; MaintenancePool is used by the background
// stats refresher and the setup-database endpoint so long maintenance work
// never starves interactive requests of connections.
type DatabasePools struct {
	AppPool         *PoolConfig
	MaintenancePool *PoolConfig
}

// PoolConfig represents configuration for a single database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// DSN returns a lib/pq style connection string, used by golang-migrate and sqlx.
func (p *PoolConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.DBName,
	)
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret            string        // Secret key for signing JWTs
	AccessTokenDuration  time.Duration // Duration for access tokens
	RefreshTokenDuration time.Duration // Duration for refresh tokens
}

// RateLimitConfig configures the per-IP token bucket on /auth routes.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
	FrontendURL        string // used to build links inside notifications
}

// RedisConfig configures the optional cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
}

// MongoConfig configures the optional message store. An empty URI selects
// the in-process store.
type MongoConfig struct {
	URI      string
	Database string
}

// MinioConfig configures the optional recipe image store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Enabled reports whether image uploads are configured.
func (m *MinioConfig) Enabled() bool { return m.Endpoint != "" }

// NATSConfig configures the optional domain event publisher.
type NATSConfig struct {
	URL string
}

// SetupConfig guards the setup-database endpoint. An empty Token disables it.
type SetupConfig struct {
	Token string
}

// BackgroundConfig configures the recipe stats refresher.
type BackgroundConfig struct {
	StatsRefreshInterval time.Duration
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DBPools    *DatabasePools
	Auth       *AuthConfig
	RateLimit  *RateLimitConfig
	Server     *ServerConfig
	Redis      *RedisConfig
	Mongo      *MongoConfig
	Minio      *MinioConfig
	NATS       *NATSConfig
	Setup      *SetupConfig
	Background *BackgroundConfig
}

// loader wraps the collected errors so the helper functions stay one-liners.
type loader struct {
	errs *multierror.Error
}

func (l *loader) fail(format string, args ...interface{}) {
	l.errs = multierror.Append(l.errs, fmt.Errorf(format, args...))
}

// required returns the variable or records a "missing" error.
func (l *loader) required(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		l.fail("missing required environment variable: %s", key)
		return ""
	}
	return value
}

// optional returns the variable or defaultValue when unset.
func (l *loader) optional(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (l *loader) optionalInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		l.fail("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	return valueInt
}

func (l *loader) optionalFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	v, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		l.fail("invalid value for %s: expected number, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	return v
}

func (l *loader) optionalBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	v, err := strconv.ParseBool(valueStr)
	if err != nil {
		l.fail("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	return v
}

// optionalDuration parses values like "15m" or "1h30s".
func (l *loader) optionalDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		l.fail("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	if d <= 0 {
		l.fail("invalid value for %s: duration must be positive, got '%s'", key, valueStr)
		return defaultValue
	}
	return d
}

// poolSize reads a pool size and clamps it into [5, 100].
// Out-of-range values are clamped silently; non-integers are errors.
func (l *loader) poolSize(key string, defaultValue int) int {
	size := l.optionalInt(key, defaultValue)
	if size < 5 {
		size = 5
	}
	if size > 100 {
		size = 100
	}
	return size
}

// splitList turns "a, b,,c" into ["a","b","c"].
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	l := &loader{}

	// Database
	dbUser := l.required("DB_USER")
	dbPassword := l.required("DB_PASSWORD")
	dbName := l.required("DB_NAME")
	dbHost := l.optional("DB_HOST", "localhost")
	dbPort := l.optionalInt("DB_PORT", 5432)
	appPoolSize := l.poolSize("DB_APP_POOL_SIZE", 10)
	maintenancePoolSize := l.poolSize("DB_MAINTENANCE_POOL_SIZE", 5)

	newPool := func(size int) *PoolConfig {
		return &PoolConfig{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			MaxSize:  size,
		}
	}

	// Auth
	authConfig := &AuthConfig{
		JWTSecret:            l.required("JWT_SECRET"),
		AccessTokenDuration:  l.optionalDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute),
		RefreshTokenDuration: l.optionalDuration("JWT_REFRESH_TOKEN_DURATION", 168*time.Hour), // 7 days
	}

	rateLimit := &RateLimitConfig{
		RequestsPerSecond: l.optionalFloat("RATE_LIMIT_RPS", 5),
		Burst:             l.optionalInt("RATE_LIMIT_BURST", 10),
	}
	if rateLimit.RequestsPerSecond <= 0 {
		l.fail("invalid value for RATE_LIMIT_RPS: must be positive")
	}
	if rateLimit.Burst < 1 {
		l.fail("invalid value for RATE_LIMIT_BURST: must be at least 1")
	}

	serverConfig := &ServerConfig{
		Port:               l.optional("PORT", "8080"),
		CORSAllowedOrigins: splitList(l.optional("CORS_ALLOWED_ORIGINS", "*")),
		FrontendURL:        strings.TrimRight(l.optional("FRONTEND_URL", ""), "/"),
	}

	minioConfig := &MinioConfig{
		Endpoint:  l.optional("MINIO_ENDPOINT", ""),
		AccessKey: l.optional("MINIO_ACCESS_KEY", ""),
		SecretKey: l.optional("MINIO_SECRET_KEY", ""),
		Bucket:    l.optional("MINIO_BUCKET", "recipe-images"),
		UseSSL:    l.optionalBool("MINIO_USE_SSL", false),
		PublicURL: strings.TrimRight(l.optional("MINIO_PUBLIC_URL", ""), "/"),
	}
	if minioConfig.Enabled() && (minioConfig.AccessKey == "" || minioConfig.SecretKey == "") {
		l.fail("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	cfg := &AppConfig{
		DBPools: &DatabasePools{
			AppPool:         newPool(appPoolSize),
			MaintenancePool: newPool(maintenancePoolSize),
		},
		Auth:      authConfig,
		RateLimit: rateLimit,
		Server:    serverConfig,
		Redis: &RedisConfig{
			Addr:     l.optional("REDIS_ADDR", ""),
			Password: l.optional("REDIS_PASSWORD", ""),
		},
		Mongo: &MongoConfig{
			URI:      l.optional("MONGO_URI", ""),
			Database: l.optional("MONGO_DB", "cookease"),
		},
		Minio: minioConfig,
		NATS:  &NATSConfig{URL: l.optional("NATS_URL", "")},
		Setup: &SetupConfig{Token: l.optional("SETUP_TOKEN", "")},
		Background: &BackgroundConfig{
			StatsRefreshInterval: l.optionalDuration("STATS_REFRESH_INTERVAL", 5*time.Minute),
		},
	}

	if err := l.errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("configuration errors: %w", err)
	}
	return cfg, nil
}
