package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAPIURL = "ROCKWATCH_API_URL"
	EnvPort   = "PORT"
	EnvDebug  = "ROCKWATCH_DEBUG"
)

// LoadDotEnv loads a .env file from the working directory when one exists.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides the backend url, listen port and debug flag from the environment.
func ApplyEnv(cfg *Config) {
	cfg.Backend.BaseURL = getEnv(EnvAPIURL, cfg.Backend.BaseURL)
	if port := strings.TrimSpace(os.Getenv(EnvPort)); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			cfg.API.Addr = ":" + port
		}
	}
	cfg.Debug = getEnvBool(EnvDebug, cfg.Debug)
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
