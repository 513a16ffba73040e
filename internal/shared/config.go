package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv             string
	LogLevel           string
	HTTPAddr           string
	MetricsAddr        string
	MySQLDSN           string
	RedisAddr          string
	RedisDB            int
	RedisPass          string
	GoogleAPIBase      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	PlatformRPS        int
	SyncWorkers        int
	CacheTTL           time.Duration
}

func Load() Config {
	_ = godotenv.Load() // .env is optional

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:             env("APP_ENV", "prod"),
		LogLevel:           env("LOG_LEVEL", "info"),
		HTTPAddr:           env("HTTP_ADDR", ":8080"),
		MetricsAddr:        env("METRICS_ADDR", ":9100"),
		MySQLDSN:           env("MYSQL_DSN", "root:root@tcp(localhost:3306)/replydesk?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:          env("REDIS_ADDR", "localhost:6379"),
		RedisDB:            atoi("REDIS_DB", 0),
		RedisPass:          env("REDIS_PASSWORD", ""),
		GoogleAPIBase:      env("GOOGLE_API_BASE", ""),
		GoogleClientID:     env("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: env("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  env("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		PlatformRPS:        atoi("PLATFORM_RPS", 5),
		SyncWorkers:        atoi("SYNC_WORKERS", 4),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.GoogleClientID == "" {
		log.Warn().Msg("GOOGLE_CLIENT_ID is empty; account connect will fail")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
