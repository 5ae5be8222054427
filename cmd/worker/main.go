package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"repurposer/internal/adapter/cache"
	"repurposer/internal/adapter/repo"
	"repurposer/internal/infra"
	"repurposer/internal/pipeline"
	"repurposer/internal/providers/image"
	"repurposer/internal/providers/text"
	"repurposer/internal/queue"
	"repurposer/internal/storage"
	"repurposer/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	redisClient, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer func() {
		_ = redisClient.Close()
	}()

	sink, err := storage.NewSink(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	textChain, err := buildTextChain(cfg, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure text providers")
	}
	imageChain, err := buildImageChain(cfg, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure image providers")
	}

	jobs := repo.NewJobRepository(pool)
	outputs := repo.NewOutputRepository(pool)
	statusCache := cache.NewStatusCache(redisClient)
	registry := pipeline.NewRegistry(
		pipeline.NewTextArtifact(textChain),
		pipeline.NewImageArtifact(textChain, imageChain, sink, httpClient),
	)
	orchestrator := pipeline.NewOrchestrator(jobs, outputs, registry, logger,
		pipeline.WithStatusCache(statusCache),
	)

	tasks := queue.NewRedisQueue(redisClient)
	policy := worker.Policy{
		MaxAttempts: cfg.WorkerMaxAttempts,
		RetryBase:   cfg.WorkerRetryBase,
	}
	w := worker.New(tasks, jobs, orchestrator, policy, cfg.WorkerConcurrency, logger,
		worker.WithStatusCache(statusCache),
	)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// buildTextChain assembles the configured providers in priority order,
// skipping any whose credentials are missing.
func buildTextChain(cfg *infra.Config, httpClient *http.Client, logger infra.Logger) (text.Generator, error) {
	var providers []text.Generator
	for _, name := range cfg.TextProviders {
		switch name {
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				logger.Warn().Msg("worker: OPENAI_API_KEY missing, skipping openai text provider")
				continue
			}
			p, err := text.NewOpenAIGenerator(text.OpenAIOptions{
				APIKey:     cfg.OpenAIAPIKey,
				Model:      cfg.OpenAIModel,
				BaseURL:    cfg.OpenAIBaseURL,
				HTTPClient: httpClient,
			})
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case "gemini":
			if cfg.GeminiAPIKey == "" {
				logger.Warn().Msg("worker: GEMINI_API_KEY missing, skipping gemini text provider")
				continue
			}
			p, err := text.NewGeminiGenerator(text.GeminiOptions{
				APIKey:     cfg.GeminiAPIKey,
				Model:      cfg.GeminiModel,
				BaseURL:    cfg.GeminiBaseURL,
				HTTPClient: httpClient,
			})
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case "static":
			providers = append(providers, text.NewStaticGenerator())
		default:
			logger.Warn().Str("provider", name).Msg("worker: unknown text provider, skipping")
		}
	}
	return text.NewChain(providers...)
}

func buildImageChain(cfg *infra.Config, httpClient *http.Client, logger infra.Logger) (image.Generator, error) {
	var providers []image.Generator
	for _, name := range cfg.ImageProviders {
		switch name {
		case "dalle":
			if cfg.OpenAIAPIKey == "" {
				logger.Warn().Msg("worker: OPENAI_API_KEY missing, skipping dalle image provider")
				continue
			}
			p, err := image.NewDalleGenerator(image.DalleOptions{
				APIKey:     cfg.OpenAIAPIKey,
				Model:      cfg.OpenAIImageModel,
				BaseURL:    cfg.OpenAIBaseURL,
				HTTPClient: httpClient,
			})
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case "stability":
			if cfg.StabilityAPIKey == "" {
				logger.Warn().Msg("worker: STABILITY_API_KEY missing, skipping stability image provider")
				continue
			}
			p, err := image.NewStabilityGenerator(image.StabilityOptions{
				APIKey:     cfg.StabilityAPIKey,
				Host:       cfg.StabilityHost,
				EngineID:   cfg.StabilityEngine,
				HTTPClient: httpClient,
			})
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		default:
			logger.Warn().Str("provider", name).Msg("worker: unknown image provider, skipping")
		}
	}
	return image.NewChain(providers...)
}
