// Package main is the entry point for the Quoter server.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (.env, optional YAML file, QUOTER_* env vars)
//  2. Create the logger
//  3. Start the server
//
// All actual logic lives in internal/.
package main

import (
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sakif/quoter/internal/auth"
	"github.com/sakif/quoter/internal/config"
	"github.com/sakif/quoter/internal/logging"
	"github.com/sakif/quoter/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/quoter.yaml", "path to an optional YAML config file")
	flag.Parse()

	// === 1. LOAD CONFIGURATION ===
	// A .env file is a development convenience; its absence is not an error.
	// Variables already set in the environment win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stdout)
	slog.SetDefault(logger)

	// === 3. SESSION SECRET ===
	// Without a configured secret, cookies are signed with a random key that
	// lives as long as the process. Set QUOTER_AUTH_SESSION_SECRET to keep
	// users signed in across restarts:
	//   QUOTER_AUTH_SESSION_SECRET=$(openssl rand -hex 32)
	if cfg.Auth.SessionSecret == "" {
		secret, err := auth.RandomSecret()
		if err != nil {
			logger.Error("failed to generate session secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
		cfg.Auth.SessionSecret = secret
		logger.Warn("auth.session_secret not set; using an ephemeral secret, sessions end on restart")
	}

	// === 4. DATA DIRECTORIES ===
	// os.MkdirAll is `mkdir -p`: it creates missing parents and succeeds if
	// the directory already exists.
	dirs := []string{}
	if cfg.DB.Path != ":memory:" {
		dirs = append(dirs, filepath.Dir(cfg.DB.Path))
	}
	if cfg.AccessLog.Enabled {
		dirs = append(dirs, filepath.Dir(cfg.AccessLog.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
