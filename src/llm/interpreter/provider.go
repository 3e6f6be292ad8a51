package interpreter

import (
	"context"
	"fmt"
	"strings"

	"life_tracker/src/model"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
)

const defaultOllamaURL = "http://localhost:11434"

// NewChatModel creates the chat model for the configured provider
func NewChatModel(ctx context.Context, config model.LLMConfig) (einomodel.BaseChatModel, error) {
	maxTokens := config.MaxTokens
	temperature := float32(config.Temperature)

	switch strings.ToLower(config.Provider) {
	case "", "openai":
		if config.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for provider openai")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating openai chat model: %w", err)
		}
		return cm, nil

	case "ollama":
		baseURL := config.BaseURL
		if baseURL == "" || strings.Contains(baseURL, "openrouter.ai") {
			baseURL = defaultOllamaURL
		}
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %w", err)
		}
		return cm, nil

	case "deepseek":
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating deepseek chat model: %w", err)
		}
		return cm, nil

	case "ark":
		cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ark chat model: %w", err)
		}
		return cm, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
}
