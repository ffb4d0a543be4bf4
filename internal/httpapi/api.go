package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"avatar-interview/internal/domain"
	"avatar-interview/internal/usecase"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"

	RouteIndex          = "/"
	RouteGetQuestions   = "/get_questions"
	RouteSaveTranscript = "/save_transcript"
	RouteHealth         = "/healthz"
)

// UseCase is the interview service as seen by the transports.
type UseCase interface {
	GetQuestions(ctx context.Context) (usecase.QuestionSet, error)
	SaveTranscript(ctx context.Context, raw string) (usecase.TranscriptAck, error)
}

type QuestionsResponse struct {
	Introduction domain.Dialog   `json:"introduction"`
	Questions    []domain.Dialog `json:"questions"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewQuestionsResponse(set usecase.QuestionSet) QuestionsResponse {
	questions := set.Questions
	if questions == nil {
		questions = []domain.Dialog{}
	}
	return QuestionsResponse{Introduction: set.Introduction, Questions: questions}
}

// DecodeTranscript extracts the transcript field from a JSON object body. A
// missing field reads as an empty transcript. Anything that is not an object,
// or a transcript that is not a string, is a malformed request.
func DecodeTranscript(body []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("httpapi: decode request body: %w", err)
	}
	if fields == nil {
		return "", errors.New("httpapi: decode request body: not a JSON object")
	}
	raw, ok := fields["transcript"]
	if !ok {
		return "", nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", errors.New("httpapi: transcript must be a string, got null")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("httpapi: transcript must be a string: %w", err)
	}
	return text, nil
}

// CorrelationID returns the caller's correlation id from headers, matching
// the header name case-insensitively, or a new one.
func CorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, HeaderCorrelationID) {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return newCorrelationID()
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
