package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	GenAIBase  string
	GenAIKey   string
	GenAIModel string
	GenAIRPS   int

	TwilioBase string
	TwilioSID  string
	TwilioTok  string
	TwilioFrom string // e.g. whatsapp:+14155238886

	AsyncReply  bool
	SearchLimit int
	BroadLimit  int
	SeedWorkers int
	CacheTTL    time.Duration
}

func Load() Config {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	boolenv := func(k string, def bool) bool {
		if v := os.Getenv(k); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":5000"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/paden?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		GenAIBase:  env("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenAIKey:   env("GENAI_API_KEY", os.Getenv("AI_API_KEY")),
		GenAIModel: env("GENAI_MODEL", "gemma-3-27b-it"),
		GenAIRPS:   atoi("GENAI_RPS", 5),

		TwilioBase: env("TWILIO_BASE_URL", "https://api.twilio.com"),
		TwilioSID:  env("TWILIO_ACCOUNT_SID", ""),
		TwilioTok:  env("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom: env("TWILIO_FROM", ""),

		AsyncReply:  boolenv("ASYNC_REPLY", false),
		SearchLimit: atoi("SEARCH_LIMIT", 5),
		BroadLimit:  atoi("BROAD_SEARCH_LIMIT", 3),
		SeedWorkers: atoi("SEED_WORKERS", 8),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.GenAIKey == "" {
		log.Warn().Msg("GENAI_API_KEY is empty; assistant replies will degrade to fallbacks")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
