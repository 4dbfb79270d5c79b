package cmd

import (
	"fmt"

	"github.com/Vibebros/sgkb-clanky/internal/assistant"
	"github.com/Vibebros/sgkb-clanky/internal/assistant/tools"
	"github.com/Vibebros/sgkb-clanky/internal/config"
	"github.com/Vibebros/sgkb-clanky/internal/finance"
	"github.com/Vibebros/sgkb-clanky/internal/llm"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires CLANKY_OPENAI_API_KEY (or OPENAI_API_KEY)")
		}
		return llm.NewOpenAIProvider(cfg.OpenAIAPIKey), nil
	case "ollama":
		return llm.NewOllamaProvider(cfg.OllamaBaseURL), nil
	}
	return nil, fmt.Errorf("unknown llm_provider %q", cfg.LLMProvider)
}

func buildEngine(cfg *config.Config, st *store.Store) (*assistant.Engine, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	personas := assistant.DefaultPersonas()
	if cfg.AgentsFile != "" {
		personas, err = assistant.LoadPersonas(cfg.AgentsFile)
		if err != nil {
			return nil, fmt.Errorf("loading agents file: %w", err)
		}
	}

	executor := finance.NewExecutor(st)

	registry := tools.NewRegistry()
	registry.Register(tools.NewDBSearcher(executor))
	registry.Register(tools.NewRecurringDetector(st))
	registry.Register(tools.NewCounter(st))

	return assistant.NewEngine(assistant.EngineConfig{
		Client:       assistant.NewAgentClient(provider, cfg.LLMModel),
		Executor:     executor,
		Registry:     registry,
		Personas:     personas,
		HistoryLimit: cfg.HistoryLimit,
	}), nil
}
