package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"promptdesk-backend/internal/config"
	"promptdesk-backend/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port         string
		dataDir      string
		settingsFile string
		frontendDir  string
		storage      string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "promptdesk",
		Short: "PromptDesk backend: prompt library, conversation history and an Ollama chat relay",
		Long: `promptdesk serves the PromptDesk web frontend, stores prompts, conversations
and settings as JSON documents, and relays chat messages to a local Ollama.

Flags override the matching environment variables (PORT, DATA_DIR, SETTINGS_FILE,
FRONTEND_DIR, STORAGE_BACKEND, LOG_LEVEL).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if flags.Changed("settings-file") {
				cfg.SettingsFile = settingsFile
			}
			if flags.Changed("frontend-dir") {
				cfg.FrontendDir = frontendDir
			}
			if flags.Changed("storage") {
				cfg.StorageBackend = strings.ToLower(storage)
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&port, "port", "5000", "HTTP listen port")
	f.StringVar(&dataDir, "data-dir", "data", "directory for prompts and conversation history")
	f.StringVar(&settingsFile, "settings-file", "config.json", "path of the settings document")
	f.StringVar(&frontendDir, "frontend-dir", "frontend", "root of the static frontend")
	f.StringVar(&storage, "storage", config.BackendFile, "document backend: file, sqlite or postgres")
	f.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	log.Info().
		Str("env", cfg.Env).
		Str("storage", cfg.StorageBackend).
		Str("data_dir", cfg.DataDir).
		Bool("redis", cfg.RedisURL != "").
		Msg("Starting PromptDesk backend")

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	defer app.Close()

	settings := app.settings.Get()
	log.Info().
		Str("model", settings.Model()).
		Str("ollama_url", settings.OllamaURL()).
		Float64("temperature", settings.Temperature()).
		Int("max_length", settings.MaxLength()).
		Msg("settings loaded")

	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	go func() {
		if err := app.hub.Run(hubCtx); err != nil {
			log.Error().Err(err).Msg("change event relay stopped")
		}
	}()

	var writeTimeout time.Duration
	if cfg.InferenceTimeout > 0 {
		writeTimeout = cfg.InferenceTimeout + 15*time.Second
	}
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msgf("PromptDesk ready on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down...")
	cancelHub()
	app.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}
