// Package config builds the application configuration exactly once at process
// start; the resulting struct is passed by reference to whatever needs it.
// Nothing in this repo reads environment variables after startup.
package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration.
type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string

	// External services; empty values disable the integration.
	OpenAIAPIKey            string
	CloudinaryURL           string
	HereAPIKey              string
	FirebaseCredentialsFile string
	FirebaseCredentialsB64  string
}

// Load reads configuration from environment variables. DATABASE_URL and
// APP_JWT_SECRET are mandatory; everything else has a default or degrades
// the related feature.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		Port:                    getEnv("PORT", "8080"),
		JWTSecret:               os.Getenv("APP_JWT_SECRET"),
		OpenAIAPIKey:            os.Getenv("OPENAI_API_KEY"),
		CloudinaryURL:           os.Getenv("CLOUDINARY_URL"),
		HereAPIKey:              os.Getenv("HERE_API_KEY"),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "./firebase-service-account.json"),
		FirebaseCredentialsB64:  os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("APP_JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// String returns a printable form with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, OpenAI: %v, Cloudinary: %v, HERE: %v}",
		c.Port, c.OpenAIAPIKey != "", c.CloudinaryURL != "", c.HereAPIKey != "")
}
