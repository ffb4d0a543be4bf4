package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"avatar-interview/internal/httpapi"
)

type Handler struct {
	uc          httpapi.UseCase
	transcripts bool
	page        []byte
	logger      *slog.Logger
}

type Option func(*Handler)

// WithTranscripts toggles the POST /save_transcript route.
func WithTranscripts(enabled bool) Option {
	return func(h *Handler) { h.transcripts = enabled }
}

func WithIndexPage(page []byte) Option {
	return func(h *Handler) { h.page = page }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandler(uc httpapi.UseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc, transcripts: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle serves an API Gateway proxy event. Failures are always reported
// through the response; the returned error is reserved for the runtime.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := httpapi.CorrelationID(req.Headers)
	path := normalizePath(req.Path)
	method := strings.ToUpper(req.HTTPMethod)

	var resp events.APIGatewayProxyResponse
	switch {
	case path == httpapi.RouteIndex:
		resp = h.route(method, http.MethodGet, correlationID, func() events.APIGatewayProxyResponse {
			return htmlResponse(h.page, correlationID)
		})
	case path == httpapi.RouteHealth:
		resp = h.route(method, http.MethodGet, correlationID, func() events.APIGatewayProxyResponse {
			return jsonResponse(http.StatusOK, struct{}{}, correlationID)
		})
	case path == httpapi.RouteGetQuestions:
		resp = h.route(method, http.MethodGet, correlationID, func() events.APIGatewayProxyResponse {
			return h.getQuestions(ctx, correlationID)
		})
	case path == httpapi.RouteSaveTranscript && h.transcripts:
		resp = h.route(method, http.MethodPost, correlationID, func() events.APIGatewayProxyResponse {
			return h.saveTranscript(ctx, req, correlationID)
		})
	default:
		resp = jsonResponse(http.StatusNotFound, httpapi.ErrorResponse{Error: httpapi.MessageNotFound}, correlationID)
	}

	h.logger.InfoContext(ctx, "request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"correlation_id", correlationID,
	)
	return resp, nil
}

func (h *Handler) route(got, want, correlationID string, serve func() events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if got != want {
		return jsonResponse(http.StatusMethodNotAllowed, httpapi.ErrorResponse{Error: httpapi.MessageMethodNotAllowed}, correlationID)
	}
	return serve()
}

func (h *Handler) getQuestions(ctx context.Context, correlationID string) events.APIGatewayProxyResponse {
	set, err := h.uc.GetQuestions(ctx)
	if err != nil {
		return h.fail(ctx, httpapi.RouteGetQuestions, correlationID, err)
	}
	return jsonResponse(http.StatusOK, httpapi.NewQuestionsResponse(set), correlationID)
}

func (h *Handler) saveTranscript(ctx context.Context, req events.APIGatewayProxyRequest, correlationID string) events.APIGatewayProxyResponse {
	body, err := requestBody(req)
	if err != nil {
		return h.fail(ctx, httpapi.RouteSaveTranscript, correlationID, err)
	}
	text, err := httpapi.DecodeTranscript(body)
	if err != nil {
		return h.fail(ctx, httpapi.RouteSaveTranscript, correlationID, err)
	}
	ack, err := h.uc.SaveTranscript(ctx, text)
	if err != nil {
		return h.fail(ctx, httpapi.RouteSaveTranscript, correlationID, err)
	}
	return jsonResponse(http.StatusOK, httpapi.MessageResponse{Message: ack.Message}, correlationID)
}

func (h *Handler) fail(ctx context.Context, route, correlationID string, err error) events.APIGatewayProxyResponse {
	status, body := httpapi.Translate(err)
	httpapi.LogFailure(ctx, h.logger, route, correlationID, status, err)
	return jsonResponse(status, body, correlationID)
}

func requestBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("handler: decode base64 body: %w", err)
	}
	return b, nil
}

// normalizePath drops a trailing slash so "/get_questions/" routes like
// "/get_questions". The root stays "/".
func normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

func jsonResponse(status int, v any, correlationID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("error serializing response body", "err", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + httpapi.MessageInternal + `"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":              "application/json",
			httpapi.HeaderCorrelationID: correlationID,
		},
		Body: string(body),
	}
}

func htmlResponse(page []byte, correlationID string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":              "text/html; charset=utf-8",
			httpapi.HeaderCorrelationID: correlationID,
		},
		Body: string(page),
	}
}
