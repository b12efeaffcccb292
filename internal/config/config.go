package config

import (
	"os"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// Parse service
	ParseURL     string
	ParseAPIKey  string
	ParseProfile string
	ParseTimeout time.Duration
	// Optional collaborators
	EmbedderURL string
	RedisURL    string
	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: tablePrefix,
		// Parse service
		ParseURL:     getEnv("PARSE_URL", ""),
		ParseAPIKey:  getEnv("PARSE_API_KEY", ""),
		ParseProfile: getEnv("PARSE_PROFILE", "intake"),
		ParseTimeout: getDuration("PARSE_TIMEOUT", 15*time.Second),
		// Optional collaborators - empty disables them
		EmbedderURL: getEnv("EMBEDDER_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		// Logging - empty LOG_DIR logs to stdout only
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: 10,
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
