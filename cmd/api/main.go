// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quillchat/session-platform/internal/config"
	"github.com/quillchat/session-platform/internal/handler"
	"github.com/quillchat/session-platform/internal/middleware"
	"github.com/quillchat/session-platform/internal/notify"
	"github.com/quillchat/session-platform/internal/platform"
	"github.com/quillchat/session-platform/internal/prompt"
	"github.com/quillchat/session-platform/internal/query"
	"github.com/quillchat/session-platform/internal/service"
	"github.com/quillchat/session-platform/pkg/logger"
	"github.com/quillchat/session-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "session-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect the event bus and platform adapter
	var (
		natsClient *notify.Client
		notifier   notify.Notifier = notify.Nop{}
		adapter    platform.Adapter
	)
	if cfg.NATSEnabled {
		natsClient, err = notify.Connect(ctx, notify.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		if err := natsClient.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure event stream", zap.Error(err))
			os.Exit(1)
		}

		notifier = natsClient
		adapter = platform.NewNATSAdapter(natsClient.Conn())
	} else {
		adapter = &platform.StaticAdapter{Online: true}
	}
	defer adapter.Close()

	adapter.OnConnectivityChange(func(online bool) {
		log.Info("connectivity changed", zap.Bool("online", online))
	})
	if err := adapter.RegisterBackgroundAgent(ctx); err != nil {
		log.Warn("failed to register background agent", zap.Error(err))
	}

	// Initialize the query service
	var queryService query.Service
	switch {
	case cfg.DefaultProvider == "openai" && cfg.OpenAIAPIKey != "":
		queryService, err = query.NewOpenAIService(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		queryService, err = query.NewAnthropicService(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		queryService, err = query.NewOpenAIService(cfg.OpenAIAPIKey)
	default:
		log.Error("no query provider API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create query service", zap.Error(err))
		os.Exit(1)
	}

	// Initialize registry and handlers
	registry := service.NewRegistry(queryService, notifier, log, nil, nil)

	healthHandler := handler.NewHealthHandler(natsClient)
	sessionHandler := handler.NewSessionHandler(registry, log)
	messageHandler := handler.NewMessageHandler(registry, sessionHandler, log)
	suggestionHandler := handler.NewSuggestionHandler(prompt.NewCatalog(nil), messageHandler, sessionHandler, log)
	attachmentHandler := handler.NewAttachmentHandler(sessionHandler, log)

	// Advance simulated upload progress
	uploadCtx, stopUploads := context.WithCancel(ctx)
	defer stopUploads()
	go func() {
		ticker := time.NewTicker(cfg.UploadAdvanceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-uploadCtx.Done():
				return
			case <-ticker.C:
				registry.AdvanceUploads()
			}
		}
	}()

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/suggestions", suggestionHandler.List)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Delete)
				r.Post("/clear", sessionHandler.Clear)
				r.Get("/export", sessionHandler.Export)

				// Messages
				r.Post("/messages", messageHandler.Submit)
				r.Post("/messages/{messageID}/regenerate", messageHandler.Regenerate)
				r.Put("/messages/{messageID}/feedback", messageHandler.Feedback)

				// Suggestions
				r.Post("/suggestions/{suggestionID}", suggestionHandler.Apply)

				// Attachments
				r.Post("/attachments", attachmentHandler.Add)
				r.Get("/attachments", attachmentHandler.List)
				r.Delete("/attachments/{attachmentID}", attachmentHandler.Remove)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
