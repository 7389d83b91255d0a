package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/relaymesh/relaymesh/internal/database"
	"github.com/relaymesh/relaymesh/internal/httputil"
	"github.com/relaymesh/relaymesh/internal/logging"
)

type server struct {
	repo   database.RepositoryInterface
	logger *logging.Logger
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "usersvc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var user database.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if strings.TrimSpace(user.Name) == "" {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "name is required")
		return
	}

	user.ID = 0
	user.CreatedAt = time.Now()
	if err := s.repo.CreateUser(r.Context(), &user); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("user creation failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to create user")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}

	user, err := s.repo.GetUser(r.Context(), uint(id))
	if errors.Is(err, database.ErrNotFound) {
		httputil.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("user lookup failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to load user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListUsers(r.Context())
	if err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("user listing failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to list users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}
