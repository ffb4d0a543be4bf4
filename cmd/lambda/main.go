package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"avatar-interview/handler"
	"avatar-interview/internal/config"
	"avatar-interview/internal/integrations/paramstore"
	"avatar-interview/internal/repository"
	"avatar-interview/internal/usecase"
	"avatar-interview/internal/web"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
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

	// ---- Clients ----
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

	// ---- Handler ----
	svc, err := usecase.NewInterviewService(store, store, logger)
	if err != nil {
		slog.Error("failed to create interview service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(svc,
		handler.WithTranscripts(cfg.TranscriptsEnabled),
		handler.WithIndexPage(web.IndexHTML),
		handler.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
