package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"auditflow/internal/audit"
	"auditflow/internal/gateway/config"
	"auditflow/internal/llm"
)

func newGateway(ctx context.Context, cfg config.LLMConfig) (llm.Gateway, error) {
	chat := llm.ChatOptions{
		System:      audit.SystemChat,
		Temperature: audit.TemperatureChat,
		MaxHistory:  audit.ChatHistoryTurns,
	}

	var base llm.Gateway
	switch cfg.Provider {
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for provider %s", cfg.Provider)
		}
		g, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, chat)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		base = g
	case config.ProviderMistral:
		if cfg.MistralAPIKey == "" {
			return nil, fmt.Errorf("MISTRAL_API_KEY is required for provider %s", cfg.Provider)
		}
		base = llm.NewMistralClient(cfg.MistralAPIKey, cfg.MistralBaseURL, cfg.MistralModel, chat)
	default:
		base = llm.NewFakeClient()
	}

	// Logging sees timeouts; the limiter wait counts against the timeout.
	return llm.Wrap(base,
		llm.WithLogging(log.New(os.Stderr, "llm: ", log.LstdFlags)),
		llm.WithTimeout(cfg.Timeout),
		llm.RateLimit(cfg.RPS, cfg.Burst),
	), nil
}
