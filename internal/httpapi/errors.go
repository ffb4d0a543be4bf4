package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"avatar-interview/internal/usecase"
)

const (
	MessageInternal         = "Internal server error"
	MessageNotFound         = "Not found"
	MessageMethodNotAllowed = "Method not allowed"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Translate maps an error from the interview service to the status code and
// body sent to the client. Only validation errors carry their own message;
// everything else collapses to an opaque 500.
func Translate(err error) (int, ErrorResponse) {
	var uerr *usecase.Error
	if errors.As(err, &uerr) && uerr.Code == usecase.ErrorInvalidInput {
		msg := uerr.Message
		if msg == "" {
			msg = "Invalid request"
		}
		return http.StatusBadRequest, ErrorResponse{Error: msg}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: MessageInternal}
}

// LogFailure records a failed request with everything the client does not see.
func LogFailure(ctx context.Context, logger *slog.Logger, route, correlationID string, status int, err error) {
	attrs := []any{
		"route", route,
		"status", status,
		"correlation_id", correlationID,
		"err", err,
	}
	var uerr *usecase.Error
	if errors.As(err, &uerr) {
		attrs = append(attrs, "code", string(uerr.Code), "reason", uerr.Reason)
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", attrs...)
		return
	}
	logger.WarnContext(ctx, "request rejected", attrs...)
}
