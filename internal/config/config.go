package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DBPath                 string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	AuthSecret             string
	SessionTTLMinutes      int
	BalanceCacheTTLSeconds int
	SeedDemoData           bool
}

func Load() Config {
	// Optional .env next to the binary; real env wins either way.
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "720"))
	if err != nil || sessionTTL < 1 {
		sessionTTL = 720
	}
	cacheTTL, err := strconv.Atoi(getEnv("BALANCE_CACHE_TTL_SECONDS", "20"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 20
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DBPath:                 getEnv("DB_PATH", "milkbook.db"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		SessionTTLMinutes:      sessionTTL,
		BalanceCacheTTLSeconds: cacheTTL,
		SeedDemoData:           os.Getenv("SEED_DEMO_DATA") == "1",
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
