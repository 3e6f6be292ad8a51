package src

import (
	"fmt"
	"life_tracker/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Log      model.LogConfig      `envconfig:"LOG"`
	Context  model.ContextConfig  `envconfig:"CONTEXT"`
	Redis    model.RedisConfig    `envconfig:"REDIS"`
	LLM      model.LLMConfig      `envconfig:"LLM"`
	Auth     model.AuthConfig     `envconfig:"AUTH"`
	HTTP     model.HTTPConfig     `envconfig:"HTTP"`
	Database model.DatabaseConfig `envconfig:"DATABASE"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	if config.Context.TTLSeconds <= 0 {
		return nil, fmt.Errorf("CONTEXT_TTL_SECONDS must be positive, got %d", config.Context.TTLSeconds)
	}

	return &config, nil
}
