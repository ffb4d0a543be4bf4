package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"avatar-interview/internal/domain"
	"avatar-interview/internal/httpapi"
	"avatar-interview/internal/usecase"
)

type stubUseCase struct {
	set     usecase.QuestionSet
	getErr  error
	ack     usecase.TranscriptAck
	saveErr error
	saved   *string
}

func (s *stubUseCase) GetQuestions(_ context.Context) (usecase.QuestionSet, error) {
	return s.set, s.getErr
}

func (s *stubUseCase) SaveTranscript(_ context.Context, raw string) (usecase.TranscriptAck, error) {
	s.saved = &raw
	return s.ack, s.saveErr
}

func makeEvent(method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, uc httpapi.UseCase, opts ...Option) *Handler {
	t.Helper()
	h, err := NewHandler(uc, opts...)
	require.NoError(t, err)
	return h
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_Index(t *testing.T) {
	h := newTestHandler(t, &stubUseCase{}, WithIndexPage([]byte("<html>hi</html>")))

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Headers["Content-Type"])
	require.Equal(t, "<html>hi</html>", resp.Body)
}

func TestHandle_GetQuestions(t *testing.T) {
	uc := &stubUseCase{set: usecase.QuestionSet{
		Introduction: domain.Dialog{Category: domain.CategoryIntroduction, Text: "Welcome."},
		Questions:    []domain.Dialog{{Category: "behavioral", Text: "Tell me about a conflict."}},
	}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/get_questions", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{
		"introduction": {"category": "introduction", "dialog": "Welcome."},
		"questions": [{"category": "behavioral", "dialog": "Tell me about a conflict."}]
	}`, resp.Body)
	require.NotEmpty(t, resp.Headers[httpapi.HeaderCorrelationID])
}

func TestHandle_GetQuestions_TrailingSlash(t *testing.T) {
	uc := &stubUseCase{set: usecase.QuestionSet{Introduction: domain.Dialog{Category: domain.CategoryIntroduction}}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/get_questions/", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Body, `"questions":[]`)
}

func TestHandle_SaveTranscript(t *testing.T) {
	uc := &stubUseCase{ack: usecase.TranscriptAck{ID: "t-1", Message: usecase.MessageTranscriptSaved}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/save_transcript", `{"transcript":"hello world"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"message":"Transcript saved"}`, resp.Body)
	require.NotNil(t, uc.saved)
	require.Equal(t, "hello world", *uc.saved)
}

func TestHandle_SaveTranscript_Base64Body(t *testing.T) {
	uc := &stubUseCase{ack: usecase.TranscriptAck{Message: usecase.MessageTranscriptSaved}}
	h := newTestHandler(t, uc)

	event := makeEvent(http.MethodPost, "/save_transcript", base64.StdEncoding.EncodeToString([]byte(`{"transcript":"encoded"}`)))
	event.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "encoded", *uc.saved)
}

func TestHandle_SaveTranscript_InvalidBody(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/save_transcript", `not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Nil(t, uc.saved)

	out := parseBody[httpapi.ErrorResponse](t, resp.Body)
	require.Equal(t, httpapi.MessageInternal, out.Error)
}

func TestHandle_SaveTranscript_Disabled(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc, WithTranscripts(false))

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/save_transcript", `{"transcript":"x"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Nil(t, uc.saved)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_transcript", Message: usecase.MessageNoTranscript}, status: http.StatusBadRequest, msg: "No transcript provided"},
		{name: "store", err: &usecase.Error{Code: usecase.ErrorStore, Reason: "dynamodb_write_error"}, status: http.StatusInternalServerError, msg: httpapi.MessageInternal},
		{name: "not found", err: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "introduction_missing"}, status: http.StatusInternalServerError, msg: httpapi.MessageInternal},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, msg: httpapi.MessageInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &stubUseCase{saveErr: tc.err})

			resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/save_transcript", `{"transcript":"hello"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[httpapi.ErrorResponse](t, resp.Body)
			require.Equal(t, tc.msg, out.Error)
		})
	}
}

func TestHandle_GetQuestions_MissingIntroductionIsOpaque(t *testing.T) {
	uc := &stubUseCase{getErr: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "introduction_missing"}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/get_questions", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"error":"Internal server error"}`, resp.Body)
}

func TestHandle_UnknownRouteAndMethod(t *testing.T) {
	h := newTestHandler(t, &stubUseCase{})

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/nope", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = h.Handle(context.Background(), makeEvent(http.MethodPost, "/get_questions", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, httpapi.MessageMethodNotAllowed, parseBody[httpapi.ErrorResponse](t, resp.Body).Error)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h := newTestHandler(t, &stubUseCase{})

	event := makeEvent(http.MethodGet, "/healthz", "")
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
