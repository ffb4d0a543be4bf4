package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const maxBodyBytes = 1 << 20

type RouterOptions struct {
	TranscriptsEnabled bool
	AllowedOrigins     []string
	IndexPage          []byte
	Logger             *slog.Logger
	RequestTimeout     time.Duration
}

type server struct {
	uc     UseCase
	page   []byte
	logger *slog.Logger
}

type ctxKey struct{}

// NewRouter wires the interview routes onto a chi router for the local HTTP
// server.
func NewRouter(uc UseCase, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &server{uc: uc, page: opts.IndexPage, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderCorrelationID},
		ExposedHeaders: []string{HeaderCorrelationID},
		MaxAge:         300,
	}))
	r.Use(middleware.RealIP)
	r.Use(s.correlate)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: MessageNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: MessageMethodNotAllowed})
	})

	r.Get(RouteIndex, s.index)
	r.Get(RouteHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, struct{}{})
	})
	r.Get(RouteGetQuestions, s.getQuestions)
	if opts.TranscriptsEnabled {
		r.Post(RouteSaveTranscript, s.saveTranscript)
	}
	return r
}

// correlate tags the request with a correlation id, echoes it back and logs
// the outcome once the handler returns.
func (s *server) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := CorrelationID(map[string]string{HeaderCorrelationID: r.Header.Get(HeaderCorrelationID)})
		w.Header().Set(HeaderCorrelationID, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))

		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"correlation_id", id,
		)
	})
}

// recoverer turns a handler panic into the same JSON 500 every other failure
// gets.
func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			s.logger.ErrorContext(r.Context(), "handler panic",
				"path", r.URL.Path,
				"correlation_id", correlationIDFrom(r.Context()),
				"panic", rvr,
				"stack", string(debug.Stack()),
			)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: MessageInternal})
		}()
		next.ServeHTTP(w, r)
	})
}

func correlationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.page)
}

func (s *server) getQuestions(w http.ResponseWriter, r *http.Request) {
	set, err := s.uc.GetQuestions(r.Context())
	if err != nil {
		s.fail(w, r, RouteGetQuestions, err)
		return
	}
	writeJSON(w, http.StatusOK, NewQuestionsResponse(set))
}

func (s *server) saveTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("transcript body over %d bytes: %w", tooLarge.Limit, err)
		}
		s.fail(w, r, RouteSaveTranscript, err)
		return
	}
	text, err := DecodeTranscript(body)
	if err != nil {
		s.fail(w, r, RouteSaveTranscript, err)
		return
	}
	ack, err := s.uc.SaveTranscript(r.Context(), text)
	if err != nil {
		s.fail(w, r, RouteSaveTranscript, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: ack.Message})
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, route string, err error) {
	status, body := Translate(err)
	LogFailure(r.Context(), s.logger, route, correlationIDFrom(r.Context()), status, err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error serializing response body", "err", err)
	}
}
