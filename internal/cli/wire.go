package cli

import (
	"context"
	"fmt"

	"budgetbot/internal/backend"
	"budgetbot/internal/cache"
	"budgetbot/internal/chat"
	"budgetbot/internal/config"
	"budgetbot/internal/intent"
	"budgetbot/internal/llm"
	applog "budgetbot/internal/log"
	"budgetbot/internal/services"
)

// Runtime is the object graph shared by the server and the operator CLI.
type Runtime struct {
	Backend *backend.BackendResult
	Plans   *cache.PlanCache
	Budget  *services.BudgetService
	Engine  *chat.Engine
}

// BuildRuntime creates the configured backend and wires the cache, executor
// and conversation engine over it. Close releases the backend.
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	resolverOpts := []intent.Option{intent.WithStrict(cfg.StrictCategories)}
	if cfg.CategorySynonymsFile != "" {
		extra, err := intent.LoadSynonyms(cfg.CategorySynonymsFile)
		if err != nil {
			_ = res.Cleanup()
			return nil, err
		}
		resolverOpts = append(resolverOpts, intent.WithSynonyms(extra))
		logger.Info("Loaded category synonyms", "path", cfg.CategorySynonymsFile, "count", len(extra))
	}
	parser := intent.NewParser(intent.NewResolver(resolverOpts...))

	plans := cache.NewPlanCache(res.Store, cfg.CacheTTL)

	var publisher services.EventPublisher
	if res.Publisher != nil {
		publisher = res.Publisher
	}
	budget := services.NewBudgetService(res.Store, plans, publisher)

	var generator llm.Generator = llm.Disabled{}
	if cfg.LLMEnabled() {
		client, err := llm.New(llm.Config{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,
		})
		if err != nil {
			_ = res.Cleanup()
			return nil, err
		}
		generator = client
		logger.Info("Language model configured", "model", cfg.LLMModel, "base_url", cfg.LLMBaseURL)
	} else {
		logger.Warn("LLM_API_KEY not set, free-form chat replies are disabled")
	}

	sessions := chat.NewSessionStore(cfg.SessionMax, cfg.SessionIdleTTL)
	engine := chat.NewEngine(plans, parser, budget, generator, sessions,
		chat.WithHistoryExchanges(cfg.HistoryExchanges))

	return &Runtime{Backend: res, Plans: plans, Budget: budget, Engine: engine}, nil
}

func (r *Runtime) Close() error {
	return r.Backend.Cleanup()
}
