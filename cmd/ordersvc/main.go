// Command ordersvc creates orders. Each order creation relays the original
// caller's token to usersvc to resolve the ordering user; without a
// resolvable token the downstream call is never made.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/relaymesh/relaymesh/internal/config"
	"github.com/relaymesh/relaymesh/internal/database"
	"github.com/relaymesh/relaymesh/internal/httputil"
	"github.com/relaymesh/relaymesh/internal/logging"
	"github.com/relaymesh/relaymesh/internal/metrics"
	"github.com/relaymesh/relaymesh/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrDefault(os.Getenv("CONFIG_PATH"))
	logger := logging.New("ordersvc", cfg.LogLevel, cfg.LogFormat)

	repo := newRepository(cfg, logger)
	m := metrics.New()

	users := httputil.NewServiceClient(httputil.ServiceClientConfig{
		BaseURL: cfg.ServiceURL("users"),
		Timeout: 10 * time.Second,
	})

	srv := &server{repo: repo, users: users, logger: logger}

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware("ordersvc", m))
	// The gateway authorizes /orders; here we only capture the inbound
	// Authorization header so the relay can forward it.
	router.Use(middleware.CaptureAuthorization)

	router.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/orders", srv.handleCreate).Methods(http.MethodPost)

	addr := cfg.ServiceAddr("orders")
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.WithFields(map[string]interface{}{"addr": addr}).Info("ordersvc listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("ordersvc server failed")
	}
}

func newRepository(cfg *config.Config, logger *logging.Logger) database.RepositoryInterface {
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory store")
		return database.NewMockRepository()
	}
	repo, err := database.Connect(cfg.Postgres.DSN)
	if err != nil {
		logger.WithError(err).Fatal("postgres connection failed")
	}
	return repo
}
