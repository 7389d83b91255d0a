package main

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/config"
	"github.com/relaymesh/relaymesh/internal/logging"
	"github.com/relaymesh/relaymesh/internal/metrics"
	"github.com/relaymesh/relaymesh/internal/middleware"
)

// routePolicy is the ordered policy table for the edge. First match wins;
// unmatched paths require an authenticated identity.
func routePolicy() *authz.Policy {
	return authz.MustNewPolicy(
		authz.Entry{Pattern: "/actuator/health", Requirement: authz.Public()},
		authz.Entry{Pattern: "/login", Requirement: authz.Public()},
		authz.Entry{Methods: []string{http.MethodGet}, Pattern: "/users/**", Requirement: authz.RequireScope("users.read")},
		authz.Entry{Pattern: "/users/**", Requirement: authz.RequireScope("users.write")},
		authz.Entry{Pattern: "/orders/**", Requirement: authz.RequireScope("orders.write")},
	)
}

func newRouter(cfg *config.Config, verifier *authz.Verifier, logger *logging.Logger, m *metrics.Metrics) *mux.Router {
	router := mux.NewRouter()

	edge := middleware.NewEdgeAuthorizer(routePolicy(), verifier, logger)
	cors := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	limiter.StartCleanup(5 * time.Minute)

	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware("gateway", m))
	router.Use(cors.Handler)
	// The limiter runs after the authorizer so authenticated traffic is
	// keyed per principal; anonymous traffic falls back to remote address.
	router.Use(edge.Handler)
	router.Use(limiter.Handler)

	router.HandleFunc("/actuator/health", healthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// Admitted requests are proxied to the owning service. Static
	// downstream URLs; discovery stays out of scope.
	router.PathPrefix("/login").Handler(proxyTo(cfg.ServiceURL("auth"), logger))
	router.PathPrefix("/logout").Handler(proxyTo(cfg.ServiceURL("auth"), logger))
	router.PathPrefix("/users").Handler(proxyTo(cfg.ServiceURL("users"), logger))
	router.PathPrefix("/orders").Handler(proxyTo(cfg.ServiceURL("orders"), logger))

	// Catch-all keeps the middleware chain in front of unmatched paths so
	// the policy fallback (authenticated) is enforced before the 404.
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"service":   "gateway",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func proxyTo(target string, logger *logging.Logger) http.Handler {
	upstream, err := url.Parse(target)
	if err != nil || target == "" {
		logger.WithError(err).WithFields(map[string]interface{}{"target": target}).Error("invalid upstream URL")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"upstream not configured"}`, http.StatusBadGateway)
		})
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.WithContext(r.Context()).WithError(err).Warn("upstream call failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
	}
	return proxy
}
