package config

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const devJWTSecret = "supersecret"

type Config struct {
	HTTPAddr     string
	ServiceName  string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string
	OTLPEndpoint string
	CORSOrigins  []string

	JWTSecret              string
	AccessTokenLifetime    time.Duration
	RefreshTokenLifetime   time.Duration
	BlacklistAfterRotation bool

	BcryptCost        int
	PasswordMinLength int

	Cookie CookieConfig
}

// CookieConfig mirrors the JWT cookie settings of the web client.
type CookieConfig struct {
	AccessTokenName  string
	RefreshTokenName string
	Secure           bool
	HTTPOnly         bool
	SameSite         http.SameSite
	MaxAge           time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		ServiceName:  getEnv("SERVICE_NAME", "ecommerce-api"),
		PostgresDSN:  getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=ecommerce sslmode=disable"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKER", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "users"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSOrigins:  splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		JWTSecret:              getEnv("JWT_SECRET", devJWTSecret),
		AccessTokenLifetime:    getDuration("ACCESS_TOKEN_LIFETIME", 5*time.Minute),
		RefreshTokenLifetime:   getDuration("REFRESH_TOKEN_LIFETIME", 7*24*time.Hour),
		BlacklistAfterRotation: getBool("BLACKLIST_AFTER_ROTATION", false),

		BcryptCost:        getInt("BCRYPT_COST", bcrypt.DefaultCost),
		PasswordMinLength: getInt("PASSWORD_MIN_LENGTH", 8),

		Cookie: CookieConfig{
			AccessTokenName:  getEnv("ACCESS_TOKEN_COOKIE_NAME", "access_token"),
			RefreshTokenName: getEnv("REFRESH_TOKEN_COOKIE_NAME", "refresh_token"),
			Secure:           getBool("COOKIE_SECURE", false),
			HTTPOnly:         getBool("COOKIE_HTTPONLY", true),
			SameSite:         ParseSameSite(getEnv("COOKIE_SAMESITE", "Lax")),
			MaxAge:           time.Duration(getInt("COOKIE_MAX_AGE", 60*60*24*7)) * time.Second,
		},
	}

	if cfg.JWTSecret == devJWTSecret {
		slog.Warn("JWT_SECRET is not set, using development secret")
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"access_token_lifetime", cfg.AccessTokenLifetime,
		"refresh_token_lifetime", cfg.RefreshTokenLifetime,
		"blacklist_after_rotation", cfg.BlacklistAfterRotation)
	return cfg
}

// ParseSameSite accepts Lax, Strict and None (case-insensitive). Anything else
// falls back to Lax.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean env value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration env value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
