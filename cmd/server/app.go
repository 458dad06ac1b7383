package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"promptdesk-backend/internal/config"
	"promptdesk-backend/internal/database"
	"promptdesk-backend/internal/handlers"
	"promptdesk-backend/internal/metrics"
	"promptdesk-backend/internal/middleware"
	"promptdesk-backend/internal/repository"
	"promptdesk-backend/internal/router"
	"promptdesk-backend/internal/services"
	"promptdesk-backend/internal/websocket"
)

// app is the fully wired backend.
type app struct {
	handler  http.Handler
	settings *services.SettingsService
	hub      *websocket.Hub

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// ──── Metrics ────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ──── Document stores ────
	dataStore, settingsStore, settingsName, err := openStores(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	log.Info().Str("backend", cfg.StorageBackend).Msg("✓ Document store ready")

	// ──── Redis (optional) ────
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)
		log.Info().Msg("✓ Redis connected")
	}

	// ──── WebSocket Hub ────
	a.hub = websocket.NewHub(redisClient, m, log)

	// ──── Repositories & Services ────
	opts := repository.Options{Logger: log, LenientReads: cfg.LenientReads, Writes: m}
	if cfg.LenientReads {
		log.Warn().Msg("lenient reads enabled: unreadable documents are treated as empty")
	}

	a.settings = services.NewSettingsService(repository.NewSettingsRepo(settingsStore, settingsName, opts), a.hub, log)
	if err := a.settings.Load(ctx); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	promptService := services.NewPromptService(repository.NewPromptRepo(dataStore, opts), a.hub, log)
	historyService := services.NewHistoryService(repository.NewConversationRepo(dataStore, opts), a.hub, log)
	chatService := services.NewChatService(a.settings, services.NewOllamaClient(cfg.InferenceTimeout, m, log))

	// ──── Router ────
	routerOpts := router.Options{
		CORSOrigin:  cfg.CORSOrigin,
		Logger:      log,
		HTTPMetrics: m,
	}
	if cfg.ChatRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.ChatRateLimit, time.Minute)
		a.closers = append(a.closers, func() error { limiter.Close(); return nil })
		routerOpts.ChatLimiter = limiter
	}

	a.handler = router.New(router.Handlers{
		Prompts:       handlers.NewPromptHandler(promptService),
		Conversations: handlers.NewConversationHandler(historyService),
		Settings:      handlers.NewSettingsHandler(a.settings),
		Chat:          handlers.NewChatHandler(chatService),
		Pages:         handlers.NewPagesHandler(cfg.FrontendDir),
		Events:        a.hub.HandleWebSocket,
		Metrics:       m.Handler(),
	}, routerOpts)

	return a, nil
}

// openStores returns the store for prompts and history, plus the store and
// document name holding the settings.
func openStores(ctx context.Context, cfg *config.Config, a *app) (data, settings database.DocumentStore, settingsName string, err error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite, config.BackendPostgres:
		sqlStore, err := database.OpenSQL(ctx, cfg.StorageBackend, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, "", err
		}
		a.closers = append(a.closers, sqlStore.Close)
		return sqlStore, sqlStore, database.SettingsDocument, nil
	default:
		fileStore, err := database.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, "", err
		}
		settingsStore, err := database.NewFileStore(filepath.Dir(cfg.SettingsFile))
		if err != nil {
			return nil, nil, "", err
		}
		return fileStore, settingsStore, filepath.Base(cfg.SettingsFile), nil
	}
}

// Close releases stores and connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
