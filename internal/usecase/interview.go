package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"avatar-interview/internal/domain"
)

const (
	MessageNoTranscript    = "No transcript provided"
	MessageTranscriptSaved = "Transcript saved"
)

type DialogReader interface {
	FetchIntroduction(ctx context.Context) (domain.Dialog, error)
	FetchQuestions(ctx context.Context) ([]domain.Dialog, error)
}

type TranscriptWriter interface {
	SaveTranscript(ctx context.Context, text string) (domain.Transcript, error)
}

type InterviewService struct {
	dialogs     DialogReader
	transcripts TranscriptWriter
	sampler     Sampler
	logger      *slog.Logger
}

// QuestionSet is the payload served to the browser before an interview.
type QuestionSet struct {
	Introduction domain.Dialog
	Questions    []domain.Dialog
}

type TranscriptAck struct {
	ID      string
	Message string
}

func NewInterviewService(d DialogReader, t TranscriptWriter, logger *slog.Logger) (*InterviewService, error) {
	if d == nil {
		return nil, errors.New("usecase: dialog reader must not be nil")
	}
	if t == nil {
		return nil, errors.New("usecase: transcript writer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InterviewService{
		dialogs:     d,
		transcripts: t,
		sampler:     NewSampler(),
		logger:      logger,
	}, nil
}

// GetQuestions loads the introduction and a random sample of at most
// MaxQuestions questions. A missing introduction fails the whole request;
// an empty question set does not.
func (s *InterviewService) GetQuestions(ctx context.Context) (QuestionSet, error) {
	intro, err := s.dialogs.FetchIntroduction(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return QuestionSet{}, newError(ErrorNotFound, "introduction_missing", err)
		}
		return QuestionSet{}, newError(ErrorStore, "dynamodb_introduction_error", err)
	}

	questions, err := s.dialogs.FetchQuestions(ctx)
	if err != nil {
		return QuestionSet{}, newError(ErrorStore, "dynamodb_questions_error", err)
	}
	if len(questions) == 0 {
		s.logger.WarnContext(ctx, "no question dialogs found")
	}

	return QuestionSet{
		Introduction: intro,
		Questions:    s.sampler.Sample(questions),
	}, nil
}

// SaveTranscript persists the trimmed transcript text.
func (s *InterviewService) SaveTranscript(ctx context.Context, raw string) (TranscriptAck, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return TranscriptAck{}, newInvalidInput("empty_transcript", MessageNoTranscript)
	}

	saved, err := s.transcripts.SaveTranscript(ctx, text)
	if err != nil {
		return TranscriptAck{}, newError(ErrorStore, "dynamodb_write_error", err)
	}
	return TranscriptAck{ID: saved.ID, Message: MessageTranscriptSaved}, nil
}
