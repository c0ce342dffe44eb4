package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/djdiptayan1/trackmoji/internal/analysis"
	"github.com/djdiptayan1/trackmoji/internal/api/handlers"
	"github.com/djdiptayan1/trackmoji/internal/api/middleware"
	"github.com/djdiptayan1/trackmoji/internal/config"
	"github.com/djdiptayan1/trackmoji/internal/gemini"
	"github.com/djdiptayan1/trackmoji/internal/ledger"
	"github.com/djdiptayan1/trackmoji/internal/logger"
	"github.com/djdiptayan1/trackmoji/internal/service"
)

func main() {
	port := flag.String("port", "", "HTTP server port (overrides PORT env)")
	flag.Parse()

	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx := context.Background()

	// Open the ledger store
	store, err := ledger.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.Close()

	// Create the Gemini client
	model, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenerateTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	// Wire the core
	analyzer := analysis.NewAnalyzer(model, log)
	queries := analysis.NewQueryEngine(model, log)
	svc := service.New(store, analyzer, queries, log)

	// Initialize handlers
	transactionsHandler := handlers.NewTransactionsHandler(svc, log, cfg.IsProduction())
	usersHandler := handlers.NewUsersHandler(svc, log, cfg.IsProduction())
	healthHandler := handlers.NewHealthHandler(store, model, log)

	// Create router
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// Transactions endpoints. The query route is registered before the
	// userPhone routes so it wins the match.
	api.HandleFunc("/transactions", transactionsHandler.Process).Methods(http.MethodPost)
	api.HandleFunc("/transactions/query", transactionsHandler.Query).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{userPhone}", transactionsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{userPhone}/summary", transactionsHandler.Summary).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{userPhone}/credits", transactionsHandler.Credits).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{userPhone}/debits", transactionsHandler.Debits).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{userPhone}/category/{category}", transactionsHandler.ByCategory).Methods(http.MethodGet)

	// Users endpoints
	api.HandleFunc("/users", usersHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/users/search", usersHandler.Search).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(r),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
