// Package config loads application configuration from environment
// variables once at startup. The resulting Config is immutable and passed
// explicitly to every component that needs it; nothing reads the
// environment after Load returns.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration values. Strings for identifiers
// and secrets, ints for durations and costs.
type Config struct {
	Env                string   // application environment ("development", "production")
	Port               string   // HTTP port to listen on
	DBUser             string   // database username
	DBPass             string   // database password (optional)
	DBHost             string   // database host address
	DBPort             string   // database port number
	DBName             string   // database name
	JWTSecret          string   // symmetric key used to sign credentials
	AccessTTLMin       int      // credential time-to-live in minutes
	BcryptCost         int      // bcrypt cost for password hashing
	AllowedOrigins     []string // CORS allow list; ["*"] in development
	RateLimitWindowSec int      // login rate-limit window in seconds
	RateLimitMax       int      // login attempts allowed per window
	UploadDir          string   // directory for uploaded media blobs
	RabbitURL          string   // AMQP broker URL; empty disables audit fan-out
}

// IsProd reports whether the app runs in production mode. Development mode
// relaxes CORS and bootstraps the schema on startup.
func (c Config) IsProd() bool {
	return strings.HasPrefix(strings.ToLower(c.Env), "p")
}

// Load reads configuration from environment variables. Required variables
// are enforced by must(); missing values exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:                envStr("APP_ENV", "development"),
		Port:               envStr("APP_PORT", "8080"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"),
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		JWTSecret:          must("JWT_SECRET"),
		AccessTTLMin:       envInt("ACCESS_TOKEN_TTL_MIN", 1440),
		BcryptCost:         envInt("BCRYPT_COST", 10),
		RateLimitWindowSec: envInt("RATE_LIMIT_WINDOW_SEC", 300),
		RateLimitMax:       envInt("RATE_LIMIT_MAX", 5),
		UploadDir:          envStr("UPLOAD_DIR", "uploads"),
		RabbitURL:          os.Getenv("RABBITMQ_URL"),
	}

	origins := envStr("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	if cfg.IsProd() && origins == "*" {
		log.Fatal("ALLOWED_ORIGINS must be set explicitly in production")
	}
	if cfg.IsProd() && len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters in production")
	}

	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application exits with a fatal log.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
