// Package handler exposes the gateway over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/multimodal-gateway/internal/events"
	"github.com/capitalize-ai/multimodal-gateway/internal/middleware"
	"github.com/capitalize-ai/multimodal-gateway/internal/service"
	"github.com/capitalize-ai/multimodal-gateway/internal/upload"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
)

// RouterConfig holds what Routes needs to build the HTTP surface.
type RouterConfig struct {
	Service            *service.GatewayService
	Uploads            *upload.Store
	Events             events.Publisher
	Logger             *logger.Logger
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// Routes builds the router for the gateway.
func Routes(cfg RouterConfig) http.Handler {
	log := cfg.Logger

	healthHandler := NewHealthHandler(cfg.Service, cfg.Events)
	chatHandler := NewChatHandler(cfg.Service, log)
	mediaHandler := NewMediaHandler(cfg.Service, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recover(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Registered before the /api subrouter so it inherits them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", healthHandler.Root)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Get("/health", healthHandler.Health)
		r.Get("/test-openai", healthHandler.TestProvider)

		r.Post("/chat", chatHandler.Chat)
		r.With(middleware.Upload(cfg.Uploads, "image", log)).Post("/process-image", mediaHandler.ProcessImage)
		r.With(middleware.Upload(cfg.Uploads, "audio", log)).Post("/process-voice", mediaHandler.ProcessVoice)
		r.With(middleware.Upload(cfg.Uploads, "file", log)).Post("/process-file", mediaHandler.ProcessFile)
	})

	return r
}
