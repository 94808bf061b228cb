// Package main runs the standalone mock OAuth provider, used when the diary
// server is started with OAUTH_PROVIDER=mock (local development, integration
// tests, compose setups).
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/sakif/food-diary/internal/mockoauth"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("MOCK_OAUTH_PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid MOCK_OAUTH_PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	provider := mockoauth.New(logger)

	logger.Info("mock OAuth provider starting", slog.Int("port", port))
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), provider.Handler()); err != nil {
		logger.Error("mock OAuth provider error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
