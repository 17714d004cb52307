// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/multimodal-gateway/internal/config"
	"github.com/capitalize-ai/multimodal-gateway/internal/events"
	"github.com/capitalize-ai/multimodal-gateway/internal/handler"
	"github.com/capitalize-ai/multimodal-gateway/internal/provider"
	"github.com/capitalize-ai/multimodal-gateway/internal/service"
	"github.com/capitalize-ai/multimodal-gateway/internal/upload"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
	"github.com/capitalize-ai/multimodal-gateway/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting API server", zap.String("provider", cfg.LLMProvider))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "multimodal-gateway", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer func() { _ = tracing.Shutdown(ctx, tp) }()
		}
	}

	// Provider status is decided here once, then confirmed by one live probe
	// that does not hold up startup.
	tracker := provider.NewTracker(cfg.Credential(), providerFactory(cfg), log.Named("provider"))
	go func() {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
		defer cancel()
		_ = tracker.Probe(probeCtx)
	}()

	store, err := upload.NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Error("failed to prepare upload directory", zap.String("dir", cfg.UploadDir), zap.Error(err))
		os.Exit(1)
	}

	// The event feed is optional; the gateway runs without it.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.Connect(events.Config{
			URL:           cfg.NATSURL,
			CAFile:        cfg.NATSCAFile,
			CertFile:      cfg.NATSCertFile,
			KeyFile:       cfg.NATSKeyFile,
			Token:         cfg.NATSToken,
			SubjectPrefix: cfg.NATSSubjectPrefix,
		}, log.Named("events"))
		if err != nil {
			log.Warn("event feed disabled", zap.Error(err))
		} else {
			publisher = natsPublisher
		}
	}
	defer publisher.Close()

	// Initialize services
	gatewaySvc := service.NewGatewayService(tracker, store, service.GatewayConfig{
		AssistantName:   cfg.AssistantName,
		HistoryLimit:    cfg.HistoryLimit,
		ProviderTimeout: cfg.ProviderTimeout,
	}, log.Named("gateway"), service.WithEventPublisher(publisher))

	// Create router
	router := handler.Routes(handler.RouterConfig{
		Service:            gatewaySvc,
		Uploads:            store,
		Events:             publisher,
		Logger:             log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening",
			zap.String("port", cfg.ServerPort),
			zap.String("health", "http://localhost:"+cfg.ServerPort+"/api/health"),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// providerFactory builds the provider selected by LLM_PROVIDER.
func providerFactory(cfg *config.Config) provider.Factory {
	if cfg.LLMProvider == config.ProviderAnthropic {
		return func(credential string) (provider.Provider, error) {
			return provider.NewAnthropicClient(provider.AnthropicConfig{
				APIKey:  credential,
				BaseURL: cfg.AnthropicBaseURL,
				Model:   cfg.AnthropicModel,
			})
		}
	}
	return func(credential string) (provider.Provider, error) {
		return provider.NewOpenAIClient(provider.OpenAIConfig{
			APIKey:             credential,
			BaseURL:            cfg.OpenAIBaseURL,
			ChatModel:          cfg.ChatModel,
			VisionModel:        cfg.VisionModel,
			TranscriptionModel: cfg.TranscriptionModel,
		})
	}
}
