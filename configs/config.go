package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

func load() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}
}

// Config returns the value of key from the environment, loading .env on first use.
func Config(key string) string {
	loadOnce.Do(load)
	return os.Getenv(key)
}

// ConfigDefault is Config with a fallback for unset keys.
func ConfigDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}
