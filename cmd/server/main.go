// Command server runs the CodeFixer web application.
//
// main only reads configuration, builds the long-lived dependencies
// (logger, database, inference client, metrics) and hands them to the
// server package; everything else lives under internal/.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/codefixer/internal/auth"
	"github.com/sakif/codefixer/internal/config"
	"github.com/sakif/codefixer/internal/inference"
	"github.com/sakif/codefixer/internal/logging"
	"github.com/sakif/codefixer/internal/metrics"
	sqliteRepo "github.com/sakif/codefixer/internal/repository/sqlite"
	"github.com/sakif/codefixer/internal/server"
	"github.com/sakif/codefixer/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "codefixer:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	// Create the data directory (like `mkdir -p`) before SQLite opens the file.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	client, err := inference.New(inference.Options{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})
	if err != nil {
		db.Close()
		return err
	}
	logger.Info("inference client ready", slog.String("model", client.Model()))

	srvCfg := server.Config{
		Addr:          cfg.Addr(),
		JWTSecret:     cfg.JWTSecret,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		Web:           web.FS,
	}
	if cfg.GitHub.Enabled() {
		srvCfg.GitHub = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	} else {
		logger.Info("GitHub sign-in disabled: GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set")
	}

	srv, err := server.New(srvCfg, server.Deps{
		DB:        db,
		Completer: client,
		Metrics:   metrics.New(),
		Logger:    logger,
	})
	if err != nil {
		db.Close()
		return err
	}

	// Start blocks until SIGINT/SIGTERM and closes the database on return.
	return srv.Start()
}
