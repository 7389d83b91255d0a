// Package httputil provides HTTP response helpers and the authenticated
// client used for service-to-service calls.
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/relaymesh/relaymesh/internal/errors"
)

// ErrorEnvelope is the single response shape for every rejection, regardless
// of which component raised it.
type ErrorEnvelope struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorResponse writes the error envelope. The envelope is marshaled
// before any byte reaches the wire; if marshaling fails a minimal hand-built
// JSON diagnostic is emitted instead so the client always receives a
// well-formed body.
func WriteErrorResponse(w http.ResponseWriter, status int, errText, message string) {
	envelope := ErrorEnvelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     errText,
		Message:   message,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"status":%d,"error":%q}`, status, errText))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// WriteServiceError renders a ServiceError (or any error) as an envelope.
// Unknown errors are masked as a 500 without leaking internals.
func WriteServiceError(w http.ResponseWriter, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("Internal server error", err)
	}
	WriteErrorResponse(w, serviceErr.HTTPStatus, serviceErr.Message, serviceErr.Message)
}
