// Package config loads the environment-driven configuration.
//
// Every knob is an environment variable, optionally seeded from a .env file
// in the working directory (local development). Nothing here validates
// combinations — cmd/server decides what's required for the selected
// provider and storage backend.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Storage backend and OAuth provider selectors.
const (
	StorageDocstore = "docstore"
	StorageSQLite   = "sqlite"

	ProviderGitHub = "github"
	ProviderMock   = "mock"
)

type Config struct {
	Port    int
	BaseURL string // public base URL, used to build the OAuth callback

	SessionSecret string

	OAuthProvider      string // "github" or "mock"
	GitHubClientID     string
	GitHubClientSecret string
	MockOAuthURL       string // server-to-server base URL of the mock provider
	MockOAuthPublicURL string // browser-facing base URL of the mock provider

	StorageBackend string // "docstore" or "sqlite"
	DataDir        string // docstore root directory
	DBPath         string // sqlite database file

	StaticDir string
}

// Load reads configuration from the environment.
func Load() *Config {
	// .env is a local-development convenience; absence is normal.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port:    getEnvInt("PORT", 8000),
		BaseURL: getEnv("BASE_URL", "http://localhost:8000"),

		SessionSecret: getEnv("SESSION_SECRET", ""),

		OAuthProvider:      getEnv("OAUTH_PROVIDER", ProviderGitHub),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		MockOAuthURL:       getEnv("MOCK_OAUTH_URL", "http://localhost:8080"),
		MockOAuthPublicURL: getEnv("MOCK_OAUTH_PUBLIC_URL", "http://localhost:8080"),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageDocstore),
		DataDir:        getEnv("DATA_DIR", "data/objects"),
		DBPath:         getEnv("DB_PATH", "data/diary.db"),

		StaticDir: getEnv("STATIC_DIR", "static"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
