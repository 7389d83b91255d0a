package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/relaymesh/relaymesh/internal/database"
	"github.com/relaymesh/relaymesh/internal/errors"
	"github.com/relaymesh/relaymesh/internal/httputil"
	"github.com/relaymesh/relaymesh/internal/logging"
)

type server struct {
	repo   database.RepositoryInterface
	users  *httputil.ServiceClient
	logger *logging.Logger
}

type createOrderRequest struct {
	UserID      uint   `json:"userId"`
	Description string `json:"description"`
}

type userResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "ordersvc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleCreate resolves the ordering user through usersvc with the caller's
// own token relayed. A missing token aborts before any downstream call.
func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if req.UserID == 0 {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "userId is required")
		return
	}

	resp, err := s.users.Get(r.Context(), fmt.Sprintf("/users/%d", req.UserID))
	if err != nil {
		if errors.IsCode(err, errors.CodeMissingToken) {
			s.logger.WithContext(r.Context()).WithError(err).Warn("relay aborted, no caller token")
		} else {
			s.logger.WithContext(r.Context()).WithError(err).Error("user lookup call failed")
		}
		httputil.WriteServiceError(w, err)
		return
	}

	var user userResponse
	if err := httputil.DecodeResponse(resp, &user); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("user lookup failed")
		httputil.WriteServiceError(w, errors.Upstream("usersvc", err))
		return
	}

	order := &database.Order{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateOrder(r.Context(), order); err != nil {
		s.logger.WithContext(r.Context()).WithError(err).Error("order creation failed")
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to create order")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":      order.ID,
		"userId":  order.UserID,
		"message": "order created for user: " + user.Name,
	})
}
