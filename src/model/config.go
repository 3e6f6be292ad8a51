package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"` // json | console
	Output     string `envconfig:"OUTPUT" default:"stdout"` // stdout | stderr | file
	FilePath   string `envconfig:"FILE_PATH" default:"logs/life_tracker.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"` // rfc3339 | unix | iso8601
}

// ContextConfig holds the context store settings
type ContextConfig struct {
	TTLSeconds int `envconfig:"TTL_SECONDS" default:"86400"`
}

// TTL returns the sliding expiry window
func (c ContextConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RedisConfig holds the backing key-value service target
type RedisConfig struct {
	URL string `envconfig:"URL"`
}

// LLMConfig selects and configures the chat model behind the interpreter
type LLMConfig struct {
	Provider    string  `envconfig:"PROVIDER" default:"openai"` // openai | ollama | deepseek | ark
	Model       string  `envconfig:"MODEL" default:"openai/gpt-4o-mini"`
	APIKey      string  `envconfig:"API_KEY"`
	BaseURL     string  `envconfig:"BASE_URL" default:"https://openrouter.ai/api/v1"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"1024"`
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.2"`
	PromptFile  string  `envconfig:"PROMPT_FILE"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET"`
	Issuer    string `envconfig:"ISSUER"`
}

// HTTPConfig holds the listener settings
type HTTPConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the durable entries store settings. An empty URL
// disables durable persistence.
type DatabaseConfig struct {
	URL            string `envconfig:"URL"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`
}
