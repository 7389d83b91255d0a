// Command authsvc issues bearer tokens for authenticated principals and
// tracks issued sessions so they can be revoked.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/config"
	"github.com/relaymesh/relaymesh/internal/logging"
	"github.com/relaymesh/relaymesh/internal/metrics"
	"github.com/relaymesh/relaymesh/internal/middleware"
	"github.com/relaymesh/relaymesh/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrDefault(os.Getenv("CONFIG_PATH"))
	logger := logging.New("authsvc", cfg.LogLevel, cfg.LogFormat)

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	sessions := newSessionStore(cfg, logger)
	issuer := authz.NewIssuer([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.TTL)
	m := metrics.New()

	srv := &server{
		issuer:   issuer,
		sessions: sessions,
		tokenTTL: cfg.JWT.TTL,
		logger:   logger,
	}

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware("authsvc", m))
	router.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/login", srv.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/logout", srv.handleLogout).Methods(http.MethodPost)

	addr := cfg.ServiceAddr("auth")
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.WithFields(map[string]interface{}{"addr": addr}).Info("authsvc listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("authsvc server failed")
	}
}

func newSessionStore(cfg *config.Config, logger *logging.Logger) session.Store {
	if cfg.Redis.Addr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory session store")
		return session.NewMemoryStore()
	}

	store := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("redis unreachable")
	}
	return store
}
