// Command usersvc serves user records. It re-validates the relayed caller
// token at its own edge before any handler runs.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/config"
	"github.com/relaymesh/relaymesh/internal/database"
	"github.com/relaymesh/relaymesh/internal/logging"
	"github.com/relaymesh/relaymesh/internal/metrics"
	"github.com/relaymesh/relaymesh/internal/middleware"
)

// policy mirrors the gateway table for the slice of routes this service
// owns, so a direct internal call gets the same decision as an edge call.
func policy() *authz.Policy {
	return authz.MustNewPolicy(
		authz.Entry{Pattern: "/health", Requirement: authz.Public()},
		authz.Entry{Pattern: "/metrics", Requirement: authz.Public()},
		authz.Entry{Methods: []string{http.MethodGet}, Pattern: "/users/**", Requirement: authz.RequireScope("users.read")},
		authz.Entry{Pattern: "/users/**", Requirement: authz.RequireScope("users.write")},
	)
}

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrDefault(os.Getenv("CONFIG_PATH"))
	logger := logging.New("usersvc", cfg.LogLevel, cfg.LogFormat)

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	repo := newRepository(cfg, logger)
	verifier := authz.NewVerifier([]byte(cfg.JWT.Secret))
	m := metrics.New()

	srv := &server{repo: repo, logger: logger}

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware("usersvc", m))
	router.Use(middleware.NewEdgeAuthorizer(policy(), verifier, logger).Handler)

	router.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/users", srv.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/users", srv.handleList).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}", srv.handleGet).Methods(http.MethodGet)

	addr := cfg.ServiceAddr("users")
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.WithFields(map[string]interface{}{"addr": addr}).Info("usersvc listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("usersvc server failed")
	}
}

func newRepository(cfg *config.Config, logger *logging.Logger) database.RepositoryInterface {
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not set, using seeded in-memory store")
		return database.NewSeededMockRepository()
	}
	repo, err := database.Connect(cfg.Postgres.DSN)
	if err != nil {
		logger.WithError(err).Fatal("postgres connection failed")
	}
	return repo
}
