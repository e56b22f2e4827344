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

	"github.com/treegpt/treegpt/internal/config"
	"github.com/treegpt/treegpt/internal/handler"
	"github.com/treegpt/treegpt/internal/llm"
	"github.com/treegpt/treegpt/internal/middleware"
	natsclient "github.com/treegpt/treegpt/internal/nats"
	"github.com/treegpt/treegpt/internal/service"
	"github.com/treegpt/treegpt/internal/store"
	"github.com/treegpt/treegpt/pkg/logger"
	"github.com/treegpt/treegpt/pkg/tracing"
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
		tp, err := tracing.InitTracer(ctx, "treegpt", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the message store
	st, err := store.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect to NATS when event publishing is enabled. The publisher is
	// best-effort, so a broker failure downgrades to a warning and the
	// server runs without events.
	var natsConn *natsclient.Client
	var publisher *natsclient.Publisher
	if cfg.NATSEnabled {
		natsConn, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			defer natsConn.Close()
			publisher = natsclient.NewPublisher(natsConn)
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure events stream", zap.Error(err))
			}
		}
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.DefaultLLM), llmAPIKey(cfg))
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services
	authSvc := service.NewAuthService(st.Users(), cfg.JWTSecret, cfg.JWTExpiration, cfg.BcryptCost, log)
	conversationSvc := service.NewConversationService(st.Conversations(), log)
	messageSvc := service.NewMessageService(st.Messages(), conversationSvc, llmClient, publisher, service.MessageConfig{
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
		MaxDepth:     cfg.BranchMaxDepth,
		LLMTimeout:   cfg.LLMTimeout,
	}, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st, natsConn)
	authHandler := handler.NewAuthHandler(authSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	treeHandler := handler.NewTreeHandler(messageSvc, log)

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

	// Auth endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Get("/me", authHandler.Me)
		})
	})

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Put("/", conversationHandler.Update)
				r.Delete("/", conversationHandler.Delete)

				// Messages and branches
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
				r.Put("/messages/{messageID}", messageHandler.Rename)
				r.Delete("/messages/{messageID}", messageHandler.Delete)

				// Tree visualization and compare
				r.Get("/tree", treeHandler.Tree)
				r.Post("/compare", treeHandler.Compare)
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

// llmAPIKey picks the key matching the configured provider, falling back
// to whichever is set.
func llmAPIKey(cfg *config.Config) string {
	switch llm.Provider(cfg.DefaultLLM) {
	case llm.ProviderOpenAI:
		return cfg.OpenAIAPIKey
	default:
		if cfg.AnthropicAPIKey != "" {
			return cfg.AnthropicAPIKey
		}
		return cfg.OpenAIAPIKey
	}
}
