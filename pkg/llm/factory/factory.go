package factory

import (
	"fmt"
	"time"

	"hana-assistant-be/pkg/llm"
	"hana-assistant-be/pkg/llm/huggingface"
	"hana-assistant-be/pkg/llm/ollama"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama", "":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "huggingface", "openai":
		if cfg.Model == "" {
			return nil, fmt.Errorf("model is required for provider %s", cfg.Provider)
		}
		return huggingface.NewHuggingFaceProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
