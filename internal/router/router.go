package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"promptdesk-backend/internal/handlers"
	"promptdesk-backend/internal/middleware"
)

type Handlers struct {
	Prompts       *handlers.PromptHandler
	Conversations *handlers.ConversationHandler
	Settings      *handlers.SettingsHandler
	Chat          *handlers.ChatHandler
	Pages         *handlers.PagesHandler
	Events        http.HandlerFunc
	Metrics       http.Handler
}

type Options struct {
	CORSOrigin  string
	Logger      zerolog.Logger
	HTTPMetrics middleware.HTTPObserver
	// ChatLimiter rate-limits POST /chat when set.
	ChatLimiter *middleware.RateLimiter
}

func New(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(opts.Logger, opts.HTTPMetrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(opts.CORSOrigin))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// ──── Pages ────
	r.Get("/", h.Pages.Page("index.html"))
	r.Get("/chat", h.Pages.Page("index.html"))
	r.Get("/settings", h.Pages.Page("settings.html"))
	r.Get("/history", h.Pages.Page("history.html"))
	r.Get("/prompts", h.Pages.Page("prompts.html"))
	r.Get("/about", h.Pages.Page("about.html"))
	r.Get("/resources/json/default_prompts.json", h.Pages.DefaultPrompts)

	// ──── Chat relay ────
	r.Group(func(r chi.Router) {
		if opts.ChatLimiter != nil {
			r.Use(opts.ChatLimiter.Middleware)
		}
		r.Post("/chat", h.Chat.Send)
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Prompt Routes ────
		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", h.Prompts.List)
			r.Post("/", h.Prompts.Create)
			r.Post("/favorites", h.Prompts.Favorite)
			r.Put("/{id}", h.Prompts.Update)
			r.Delete("/{id}", h.Prompts.Delete)
		})

		// ──── Conversation Routes ────
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", h.Conversations.List)
			r.Post("/", h.Conversations.Save)
			r.Post("/clear", h.Conversations.Clear)
			r.Delete("/{timestamp}", h.Conversations.Delete)
		})

		// ──── Settings Routes ────
		r.Get("/settings", h.Settings.Get)
		r.Post("/settings", h.Settings.Update)

		// ──── WebSocket ────
		if h.Events != nil {
			r.Get("/events", h.Events)
		}
	})

	// Everything else is a static asset of the frontend.
	r.Get("/*", h.Pages.Static)

	return r
}
