package httpapi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"avatar-interview/internal/usecase"
)

func TestDecodeTranscript(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string", body: `{"transcript":"hello"}`, want: "hello"},
		{name: "extra fields ignored", body: `{"transcript":"hi","speaker":"user"}`, want: "hi"},
		{name: "missing field", body: `{}`, want: ""},
		{name: "empty string", body: `{"transcript":""}`, want: ""},
		{name: "null transcript", body: `{"transcript":null}`, wantErr: true},
		{name: "number transcript", body: `{"transcript":42}`, wantErr: true},
		{name: "not json", body: `transcript=hello`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
		{name: "array", body: `["hello"]`, wantErr: true},
		{name: "null body", body: `null`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeTranscript([]byte(tc.body))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid input keeps its message",
			err:        &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_transcript", Message: "No transcript provided"},
			wantStatus: http.StatusBadRequest,
			wantBody:   "No transcript provided",
		},
		{
			name:       "store error is opaque",
			err:        &usecase.Error{Code: usecase.ErrorStore, Reason: "dynamodb_write_error", Err: errors.New("secret table detail")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   MessageInternal,
		},
		{
			name:       "not found is opaque",
			err:        &usecase.Error{Code: usecase.ErrorNotFound, Reason: "introduction_missing"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   MessageInternal,
		},
		{
			name:       "plain error",
			err:        errors.New("decode failed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   MessageInternal,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := Translate(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantBody, body.Error)
		})
	}
}

func TestCorrelationID(t *testing.T) {
	orig := newCorrelationID
	t.Cleanup(func() { newCorrelationID = orig })
	newCorrelationID = func() string { return "generated" }

	require.Equal(t, "abc", CorrelationID(map[string]string{"x-correlation-id": "abc"}))
	require.Equal(t, "abc", CorrelationID(map[string]string{"X-CORRELATION-ID": " abc "}))
	require.Equal(t, "generated", CorrelationID(map[string]string{"X-Correlation-Id": "  "}))
	require.Equal(t, "generated", CorrelationID(nil))
}

func TestNewQuestionsResponse_NilQuestionsBecomeEmpty(t *testing.T) {
	resp := NewQuestionsResponse(usecase.QuestionSet{})
	require.NotNil(t, resp.Questions)
	require.Empty(t, resp.Questions)
}
