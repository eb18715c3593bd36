package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Search pipeline modes.
const (
	SearchModeGenerative = "generative"
	SearchModeLive       = "live"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis
	RedisURL string

	// Session tokens
	SessionSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Product search
	SearchMode      string
	OxylabsUsername string
	OxylabsPassword string

	// Workers
	WorkerCount        int
	TurnTimeoutSeconds int
}

// Load reads the environment (and .env if present). Missing credentials are a
// startup failure, never a silently degraded runtime.
func Load() *Config {
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		SessionSecret:        mustGetEnv("SESSION_SECRET"),
		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		SearchMode:           getEnvOrDefault("SEARCH_MODE", SearchModeGenerative),
		OxylabsUsername:      getEnvOrDefault("OXYLABS_API_USERNAME", ""),
		OxylabsPassword:      getEnvOrDefault("OXYLABS_API_PASSWORD", ""),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 5),
		TurnTimeoutSeconds:   getEnvAsIntOrDefault("TURN_TIMEOUT_SECONDS", 90),
	}

	if cfg.SearchMode != SearchModeGenerative && cfg.SearchMode != SearchModeLive {
		panic(fmt.Sprintf("SEARCH_MODE must be %q or %q, got %q", SearchModeGenerative, SearchModeLive, cfg.SearchMode))
	}

	// Live lookups need the product-search backend credentials.
	if cfg.SearchMode == SearchModeLive {
		cfg.OxylabsUsername = mustGetEnv("OXYLABS_API_USERNAME")
		cfg.OxylabsPassword = mustGetEnv("OXYLABS_API_PASSWORD")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
