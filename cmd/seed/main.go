package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"avatar-interview/internal/config"
	"avatar-interview/internal/repository"
	"avatar-interview/internal/seed"
)

func main() {
	envPath := flag.String("env", "", "path to load env from")
	seedPath := flag.String("file", "seed/dialogs.yaml", "YAML file with dialog records")
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
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialogs, err := seed.LoadFile(*seedPath)
	if err != nil {
		slog.Error("failed to read seed file", "err", err)
		os.Exit(1)
	}

	awsCfg, err := cfg.AWSConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}
	prov, err := repository.NewProvisioner(repository.NewDynamoDB(awsCfg, cfg.DynamoDBEndpoint), cfg.DialogsTable, cfg.TranscriptsTable)
	if err != nil {
		slog.Error("failed to create provisioner", "err", err)
		os.Exit(1)
	}

	if err := prov.EnsureTables(ctx); err != nil {
		slog.Error("failed to create tables", "err", err)
		os.Exit(1)
	}
	if cfg.TranscriptsEnabled {
		if err := prov.EnsureTranscriptTTL(ctx); err != nil {
			slog.Error("failed to enable transcript TTL", "err", err)
			os.Exit(1)
		}
	}
	if err := prov.PutDialogs(ctx, dialogs); err != nil {
		slog.Error("failed to load dialogs", "err", err)
		os.Exit(1)
	}

	slog.Info("seed complete",
		"dialogs", len(dialogs),
		"dialogs_table", cfg.DialogsTable,
		"endpoint", cfg.DynamoDBEndpoint,
	)
}
