package llm

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"chatrelay/internal/config"
)

// New selects a provider implementation from configuration.
func New(cfg *config.Config, log *logrus.Logger) (Provider, error) {
	switch cfg.LLM.Provider {
	case config.ProviderRelay:
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("LLM_API_URL is required for the relay provider")
		}
		return NewRelay(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout, log), nil
	case config.ProviderOpenAI:
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_TOKEN is required for the openai provider")
		}
		return NewOpenAI(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.OpenAIModel), nil
	case config.ProviderMock:
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
}
