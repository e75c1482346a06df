// Package api holds the HTTP error mapping and JSON helpers shared by
// handlers and middleware.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse acknowledges an action without returning a resource.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorWriter renders err for the client.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// StatusOf maps an error code to its HTTP status.
func StatusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument, apperr.CodeFailedPrecondition, apperr.CodeAlreadyExists:
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodePermissionDenied:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeAborted:
		return http.StatusConflict
	case apperr.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case apperr.CodeInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// NewErrorWriter returns the single error mapping of the service. Outside
// production the body carries the underlying cause; in production a 500
// only says "Internal server error".
func NewErrorWriter(log *zap.Logger, production bool) ErrorWriter {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		var appErr *apperr.AppError
		if !errors.As(err, &appErr) {
			appErr = &apperr.AppError{Code: apperr.CodeInternal, Message: "Internal server error", Cause: err}
		}
		status := StatusOf(appErr.Code)

		resp := ErrorResponse{Message: appErr.Message}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			if production {
				resp = ErrorResponse{Message: "Internal server error"}
			}
		}
		if !production && appErr.Cause != nil {
			resp.Error = appErr.Cause.Error()
		}

		RespondJSON(w, status, resp)
	}
}

// RespondJSON writes v with status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads one JSON object from the request body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.InvalidArg("Request body is required")
		case errors.As(err, &maxErr):
			return apperr.InvalidArgf("Request body must be at most %d bytes", maxErr.Limit)
		}
		return apperr.Wrap(apperr.CodeInvalidArgument, "Invalid request body", err)
	}
	if dec.More() {
		return apperr.InvalidArg("Request body must be a single JSON object")
	}
	return nil
}

// PathID parses the named path wildcard as a uuid, answering invalid when
// it is malformed.
func PathID(r *http.Request, name string, invalid error) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, invalid
	}
	return id, nil
}
