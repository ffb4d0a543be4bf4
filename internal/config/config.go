// Package config loads process settings from the environment and turns them
// into the clients the binaries need.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LocalDynamoDBEndpoint is where the local server and seeder expect
// DynamoDB Local when no endpoint is configured.
const LocalDynamoDBEndpoint = "http://127.0.0.1:8000"

type Config struct {
	DialogsTable       string   `env:"DIALOGS_TABLE" envDefault:"dialogs"`
	TranscriptsTable   string   `env:"TRANSCRIPTS_TABLE" envDefault:"transcripts"`
	TranscriptsEnabled bool     `env:"TRANSCRIPTS_ENABLED" envDefault:"true"`
	DynamoDBEndpoint   string   `env:"DYNAMODB_ENDPOINT"`
	AWSRegion          string   `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string   `env:"AWS_ACCESS_KEY_ID"`
	ParamPrefix        string   `env:"PARAM_PREFIX"`
	APIPort            string   `env:"API_PORT" envDefault:"5000"`
	AllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadEnvFile merges a dotenv file into the process environment. Variables
// already set win. An empty path is a no-op.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load env file %q: %w", path, err)
	}
	return nil
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	cfg.DialogsTable = strings.TrimSpace(cfg.DialogsTable)
	cfg.TranscriptsTable = strings.TrimSpace(cfg.TranscriptsTable)
	cfg.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	if cfg.DialogsTable == "" || cfg.TranscriptsTable == "" {
		return Config{}, fmt.Errorf("config: table names must not be empty")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadLocal is Load for binaries that talk to DynamoDB Local by default.
func LoadLocal() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if cfg.DynamoDBEndpoint == "" {
		cfg.DynamoDBEndpoint = LocalDynamoDBEndpoint
	}
	return cfg, nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// NewLogger returns a JSON logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// AWSConfig builds the SDK configuration from the default credential chain,
// which reads env keys and session tokens itself. Only against a custom
// endpoint with no keys in the environment are placeholder credentials
// installed, since DynamoDB Local accepts any.
func (c Config) AWSConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if c.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(c.AWSRegion))
	}
	if c.DynamoDBEndpoint != "" && c.AWSAccessKeyID == "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("config: load aws config: %w", err)
	}
	return cfg, nil
}

// ParamReader resolves optional parameters.
type ParamReader interface {
	GetParameterOr(ctx context.Context, name, fallback string) (string, error)
}

// ResolveTables overrides the table names with values stored under
// ParamPrefix. Without a prefix the environment values stand.
func (c *Config) ResolveTables(ctx context.Context, params ParamReader) error {
	if c.ParamPrefix == "" {
		return nil
	}
	dialogs, err := params.GetParameterOr(ctx, c.ParamPrefix+"/config/dialogs_table", c.DialogsTable)
	if err != nil {
		return fmt.Errorf("config: resolve dialogs table: %w", err)
	}
	transcripts, err := params.GetParameterOr(ctx, c.ParamPrefix+"/config/transcripts_table", c.TranscriptsTable)
	if err != nil {
		return fmt.Errorf("config: resolve transcripts table: %w", err)
	}
	c.DialogsTable = dialogs
	c.TranscriptsTable = transcripts
	return nil
}
