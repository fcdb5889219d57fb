package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// session token
	JWTSecret       string
	TokenTTLSeconds int
	CookieName      string

	// http
	CORSOrigins     []string
	RateLimitPerMin int
	MaxBodyBytes    int64

	// redis cache (optional, empty addr disables it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// tracing (optional)
	OTLPEndpoint   string
	TracingEnabled bool

	// initial admin account
	AdminName     string
	AdminPassword string
	AdminRole     string
}

func Load() Config {
	// .env is optional, real env always wins
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:   env,
		Port:  port,
		DBURL: dbURL,

		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTLSeconds: getEnvInt("TOKEN_TTL_SECONDS", 7200),
		CookieName:      getEnv("TOKEN_COOKIE_NAME", "token"),

		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 30),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),
		TracingEnabled: getEnv("TRACING_ENABLED", "") == "1",

		AdminName:     getEnv("ADMIN_NAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminRole:     getEnv("ADMIN_ROLE", "ADMIN"),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "userhub")
	pass := getEnv("DB_PASSWORD", "userhub")
	name := getEnv("DB_NAME", "userhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
