package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/switchyardhq/switchyard/common/id"
	"github.com/switchyardhq/switchyard/common/llm"
	"github.com/switchyardhq/switchyard/common/logger"
	"github.com/switchyardhq/switchyard/common/otel"
	"github.com/switchyardhq/switchyard/core/config"
	"github.com/switchyardhq/switchyard/core/db"
	"github.com/switchyardhq/switchyard/internal/classify"
	"github.com/switchyardhq/switchyard/internal/dispatch"
	"github.com/switchyardhq/switchyard/internal/handlers"
	"github.com/switchyardhq/switchyard/internal/pipeline"
	"github.com/switchyardhq/switchyard/internal/queue"
	"github.com/switchyardhq/switchyard/internal/store"
	"github.com/switchyardhq/switchyard/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "switchyard worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	// Server uses node 1
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    1, // Classify one event at a time
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	invoker, err := buildInvoker(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm invoker", "error", err)
		os.Exit(1)
	}

	classifier := classify.New(invoker, classify.Config{
		CheapModel:        cfg.Classifier.CheapModel,
		StandardModel:     cfg.Classifier.StandardModel,
		PremiumModel:      cfg.Classifier.PremiumModel,
		StandardThreshold: cfg.Classifier.StandardThreshold,
		PremiumThreshold:  cfg.Classifier.PremiumThreshold,
		CacheEnabled:      cfg.Classifier.CacheEnabled,
	})

	registry := dispatch.NewRegistry()
	registry.Register(dispatch.HandlerScheduler, handlers.NewScheduler())
	registry.Register(dispatch.HandlerNotifier, handlers.NewNotifier())
	registry.Register(dispatch.HandlerOrchestrator, handlers.NewOrchestrator())

	dispatcher := dispatch.New(registry)
	pipe := pipeline.New(classifier, dispatcher)

	stores := store.NewStores(database.Pool())

	w := worker.New(consumer, stores.EventLogs(), stores.Dispatches(), pipe, worker.Config{
		MaxAttempts: 3,
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running",
		"cheap_model", cfg.Classifier.CheapModel,
		"standard_model", cfg.Classifier.StandardModel,
		"premium_model", cfg.Classifier.PremiumModel)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop reclaimer first (quick)
	reclaimer.Stop()

	// Stop worker (may be mid-classification)
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

// buildInvoker wires one invoker per tier so each tier can point at a
// different provider. Models route by name; the cheap tier is the fallback.
func buildInvoker(cfg config.Config) (llm.Invoker, error) {
	tiers := []struct {
		model string
		llm   config.LLMConfig
	}{
		{cfg.Classifier.CheapModel, cfg.CheapLLM},
		{cfg.Classifier.StandardModel, cfg.StandardLLM},
		{cfg.Classifier.PremiumModel, cfg.PremiumLLM},
	}

	fallback, err := llm.NewInvoker(llmConfig(cfg.CheapLLM))
	if err != nil {
		return nil, fmt.Errorf("create fallback invoker: %w", err)
	}

	multi := llm.NewMultiInvoker(fallback)
	for _, tier := range tiers {
		invoker, err := llm.NewInvoker(llmConfig(tier.llm))
		if err != nil {
			return nil, fmt.Errorf("create invoker for %s: %w", tier.model, err)
		}
		multi.Register(tier.model, invoker)
	}

	return multi, nil
}

func llmConfig(cfg config.LLMConfig) llm.Config {
	return llm.Config{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
	}
}

const banner = `
███████╗██╗    ██╗██╗████████╗ ██████╗██╗  ██╗██╗   ██╗ █████╗ ██████╗ ██████╗
██╔════╝██║    ██║██║╚══██╔══╝██╔════╝██║  ██║╚██╗ ██╔╝██╔══██╗██╔══██╗██╔══██╗
███████╗██║ █╗ ██║██║   ██║   ██║     ███████║ ╚████╔╝ ███████║██████╔╝██║  ██║
╚════██║██║███╗██║██║   ██║   ██║     ██╔══██║  ╚██╔╝  ██╔══██║██╔══██╗██║  ██║
███████║╚███╔███╔╝██║   ██║   ╚██████╗██║  ██║   ██║   ██║  ██║██║  ██║██████╔╝
╚══════╝ ╚══╝╚══╝ ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`
