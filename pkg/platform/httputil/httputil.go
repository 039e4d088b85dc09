// Package httputil holds the JSON envelope helpers shared by every handler.
//
// Successful responses are written as-is by handlers. Failures always use
// {"success": false, "message": ..., "error": ...}, where message is the
// route-level summary ("Registration failed") and error is the client-safe
// description from the domain error.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Validatable request bodies are validated by DecodeAndPrepare after decoding.
type Validatable interface {
	Validate() error
}

// Normalizable request bodies are normalized before validation.
type Normalizable interface {
	Normalize()
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes the failure envelope.
func WriteError(w http.ResponseWriter, message string, err error) {
	status, desc := StatusFor(err)
	WriteJSON(w, status, ErrorResponse{Success: false, Message: message, Error: desc})
}

// WriteMessage writes a failure envelope without an error description.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// StatusFor returns the HTTP status and client-safe description for err.
// Internal failures never leak their cause.
func StatusFor(err error) (int, string) {
	de, ok := dErrors.From(err)
	if !ok {
		return http.StatusInternalServerError, "internal error"
	}
	switch de.Code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest, de.Message
	case dErrors.CodeNotFound:
		return http.StatusNotFound, de.Message
	case dErrors.CodeConflict:
		return http.StatusConflict, de.Message
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized, de.Message
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return http.StatusInternalServerError, de.Message
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// DecodeAndPrepare decodes a JSON body into T, then runs Normalize and
// Validate when T implements them. On failure it writes the envelope with
// message and returns false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string) (*T, bool) {
	ctx := r.Context()
	var req T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = dErrors.New(dErrors.CodeBadRequest, "request body is required")
		} else {
			err = dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
		}
		logger.WarnContext(ctx, "failed to decode request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		WriteError(w, message, err)
		return nil, false
	}

	if n, ok := any(&req).(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.InfoContext(ctx, "request validation failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			WriteError(w, message, err)
			return nil, false
		}
	}
	return &req, true
}
