// Package main is the entry point for the food diary server.
//
// main's job is kept minimal: read configuration, construct dependencies,
// start the application. The interesting decision made here is which storage
// backend and which OAuth provider to wire — everything downstream only sees
// interfaces.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/food-diary/internal/auth"
	"github.com/sakif/food-diary/internal/config"
	"github.com/sakif/food-diary/internal/objectstore"
	"github.com/sakif/food-diary/internal/repository"
	"github.com/sakif/food-diary/internal/repository/docstore"
	"github.com/sakif/food-diary/internal/repository/sqlite"
	"github.com/sakif/food-diary/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()

	if cfg.SessionSecret == "" {
		logger.Error("SESSION_SECRET is required (e.g. openssl rand -hex 32)")
		os.Exit(1)
	}

	sessions, err := auth.NewSessions(cfg.SessionSecret, auth.DefaultSessionTTL)
	if err != nil {
		logger.Error("invalid session configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		logger.Error("invalid OAuth configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo, closer, err := buildRepository(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		StaticDir: cfg.StaticDir,
	}, logger, repo, provider, sessions)

	// Start blocks until shutdown (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildProvider wires the configured OAuth provider: real GitHub, or the
// mock provider for local/integration runs.
func buildProvider(cfg *config.Config, logger *slog.Logger) (*auth.Provider, error) {
	callbackURL := cfg.BaseURL + "/auth/callback"

	switch cfg.OAuthProvider {
	case config.ProviderGitHub:
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("GitHub OAuth requires GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET")
		}
		return auth.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, callbackURL), nil

	case config.ProviderMock:
		logger.Warn("using mock OAuth provider — for local development only",
			slog.String("url", cfg.MockOAuthURL),
		)
		// The authorize URL is browser-facing; token and user-info are
		// server-to-server, so the two base URLs may differ.
		return auth.NewCustom(
			"mock-client-id",
			"mock-client-secret",
			callbackURL,
			cfg.MockOAuthPublicURL+"/oauth/authorize",
			cfg.MockOAuthURL+"/oauth/token",
			cfg.MockOAuthURL+"/user",
		), nil

	default:
		return nil, fmt.Errorf("unsupported OAuth provider: %s", cfg.OAuthProvider)
	}
}

// buildRepository wires the configured storage backend. The returned closer
// is nil for backends with nothing to close.
func buildRepository(cfg *config.Config, logger *slog.Logger) (repository.Repository, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.StorageDocstore:
		store, err := objectstore.NewFilesystem(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("storage: document store", slog.String("dir", cfg.DataDir))
		return docstore.New(store, logger), nil, nil

	case config.StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("storage: sqlite", slog.String("path", cfg.DBPath))
		return db, db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
