package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"avatar-interview/internal/config"
	"avatar-interview/internal/httpapi"
	"avatar-interview/internal/integrations/paramstore"
	"avatar-interview/internal/repository"
	"avatar-interview/internal/usecase"
	"avatar-interview/internal/web"
)

const shutdownTimeout = 30 * time.Second

func main() {
	envPath := flag.String("env", "", "path to load env from")
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		slog.Error("failed to load env file", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadLocal()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := cfg.AWSConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}
	if cfg.ParamPrefix != "" {
		params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		if err := cfg.ResolveTables(ctx, params); err != nil {
			slog.Error("failed to resolve table names", "err", err)
			os.Exit(1)
		}
	}

	store, err := repository.New(repository.NewDynamoDB(awsCfg, cfg.DynamoDBEndpoint), cfg.DialogsTable, cfg.TranscriptsTable)
	if err != nil {
		slog.Error("failed to create store client", "err", err)
		os.Exit(1)
	}
	if cfg.TranscriptsEnabled {
		if err := store.EnsureTranscriptTTL(ctx); err != nil {
			slog.Warn("could not verify transcript TTL", "table", cfg.TranscriptsTable, "err", err)
		}
	}

	svc, err := usecase.NewInterviewService(store, store, logger)
	if err != nil {
		slog.Error("failed to create interview service", "err", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr: ":" + cfg.APIPort,
		Handler: httpapi.NewRouter(svc, httpapi.RouterOptions{
			TranscriptsEnabled: cfg.TranscriptsEnabled,
			AllowedOrigins:     cfg.AllowedOrigins,
			IndexPage:          web.IndexHTML,
			Logger:             logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "err", err)
		}
	}()

	slog.Info("api server listening",
		"port", cfg.APIPort,
		"dynamodb_endpoint", cfg.DynamoDBEndpoint,
		"transcripts_enabled", cfg.TranscriptsEnabled,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("could not listen", "port", cfg.APIPort, "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
