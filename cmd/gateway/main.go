// Command gateway is the edge entry point for all inbound traffic. It
// authorizes every request against the route policy table and proxies
// admitted requests to the internal services.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/config"
	"github.com/relaymesh/relaymesh/internal/logging"
	"github.com/relaymesh/relaymesh/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrDefault(os.Getenv("CONFIG_PATH"))
	logger := logging.New("gateway", cfg.LogLevel, cfg.LogFormat)

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	verifier := authz.NewVerifier([]byte(cfg.JWT.Secret))
	m := metrics.New()

	router := newRouter(cfg, verifier, logger, m)

	addr := cfg.ServiceAddr("gateway")
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.WithFields(map[string]interface{}{"addr": addr}).Info("gateway listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("gateway server failed")
	}
}
