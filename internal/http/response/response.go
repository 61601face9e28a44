// Package response writes the API JSON envelope from plain net/http handlers.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
)

// Version is the envelope format version, sent as "v" in every body.
const Version = 1

// Envelope is the body of a successful response, or of an error that carries
// no machine-readable code.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope is the body of an error response with a code.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// internalMessage replaces the message of every 5xx error sent to clients.
const internalMessage = "internal server error"

// JSON writes data wrapped in a success envelope.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: Version,
		Success: status < 400,
		Data:    data,
	}, logger)
}

// Success writes a 200 OK envelope.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes err as an error envelope. Domain errors keep their code and
// status. Anything else, and any internal domain error, becomes a generic 500
// and is logged.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	write(w, StatusOf(err), ErrorBody(err, logger), logger)
}

// ErrorBody builds the envelope for err without writing it.
func ErrorBody(err error, logger *slog.Logger) ErrorEnvelope {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Internal() {
		if logger != nil {
			logger.Error("request failed", slog.String("error", err.Error()))
		}
		return ErrorEnvelope{
			Version: Version,
			Code:    string(domainerrors.CodeInternal),
			Message: internalMessage,
		}
	}

	return ErrorEnvelope{
		Version: Version,
		Code:    string(domainErr.Code),
		Message: domainErr.Message,
		Details: domainErr.Details,
	}
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Unauthorized writes a 401 envelope.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.Unauthorized(message), logger)
}

// Forbidden writes a 403 envelope.
func Forbidden(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.Forbidden(message), logger)
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.NotFound(message), logger)
}

// MethodNotAllowed writes a 405 envelope.
func MethodNotAllowed(w http.ResponseWriter, logger *slog.Logger) {
	write(w, http.StatusMethodNotAllowed, ErrorEnvelope{
		Version: Version,
		Code:    "METHOD_NOT_ALLOWED",
		Message: "method not allowed",
	}, logger)
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}
