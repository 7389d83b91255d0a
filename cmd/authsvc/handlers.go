package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/httputil"
	"github.com/relaymesh/relaymesh/internal/logging"
	"github.com/relaymesh/relaymesh/internal/session"
	"github.com/relaymesh/relaymesh/internal/token"
)

// defaultScopes are granted to every issued token in this demo deployment.
var defaultScopes = []string{"users.read", "users.write", "orders.write"}

type server struct {
	issuer   *authz.Issuer
	sessions session.Store
	tokenTTL time.Duration
	logger   *logging.Logger
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "authsvc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleLogin issues a token for the requested username. Username comes
// from the query string or a JSON body.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		var req struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			username = strings.TrimSpace(req.Username)
		}
	}
	if username == "" {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "username is required")
		return
	}

	signed, err := s.issuer.Issue(username, defaultScopes)
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("token signing failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to issue token")
		return
	}

	if err := s.sessions.Register(r.Context(), session.HashToken(signed), username, s.tokenTTL); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("session registration failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to register session")
		return
	}

	s.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
		"principal": username,
	}).Info("token issued")

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"token": signed})
}

// handleLogout revokes the session for the presented token.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw := token.Normalize(r.Header.Get("Authorization"))
	if raw == "" {
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "no token presented")
		return
	}

	if err := s.sessions.Revoke(r.Context(), session.HashToken(raw)); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("session revocation failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to revoke session")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
