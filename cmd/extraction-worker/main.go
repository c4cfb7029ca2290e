// Package main provides the text extraction worker entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/docuflow-ai/summary-engine/internal/config"
	"github.com/docuflow-ai/summary-engine/internal/llm"
	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/stages"
	"github.com/docuflow-ai/summary-engine/internal/store"
	"github.com/docuflow-ai/summary-engine/internal/worker"
)

func main() {
	// Local development convenience; missing .env is fine
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "extraction-worker",
	})

	logger.Info().
		Str("redis", cfg.Redis.Addr).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Starting extraction worker")

	client, err := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen, err := llm.NewClient(ctx, logger, llm.Config{
		ProjectID:       cfg.Vertex.ProjectID,
		Region:          cfg.Vertex.Region,
		ExtractionModel: cfg.Vertex.ExtractionModel,
		SummaryModel:    cfg.Vertex.SummaryModel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create generation client")
	}
	defer gen.Close()

	meta := store.NewRedisMetadataStore(client)
	bin := store.NewRedisBinaryStore(client)
	channel := queue.NewRedisChannelFromClient(client)

	stage := stages.NewExtraction(logger, meta, bin, channel, gen)

	pool := worker.NewPool(logger, channel, meta, stage, worker.Config{
		Stream:     queue.StreamIngested,
		Group:      queue.GroupExtraction,
		Consumer:   worker.ConsumerName(stage.Name()),
		BatchSize:  cfg.Worker.BatchSize,
		Block:      cfg.Worker.Block,
		ErrorSleep: cfg.Worker.ErrorSleep,
	}, cfg.Worker.Concurrency)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	if err := pool.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Worker pool failed")
	}

	logger.Info().Msg("Extraction worker stopped")
}
