package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"leona-console/handler"
	"leona-console/internal/repository"
	"leona-console/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	historyTable := mustEnv("HISTORY_TABLE")
	partition := envString("HISTORY_PARTITION", "default")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	historyStore, err := repository.New(awsdynamodb.NewFromConfig(cfg), historyTable, partition)
	if err != nil {
		slog.Error("failed to create history store", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	historyService, err := usecase.NewHistoryService(historyStore)
	if err != nil {
		slog.Error("failed to create history service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(historyService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
