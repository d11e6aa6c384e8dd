package config

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	coreconfig "github.com/m3rciful/gptbot/core/config"
)

// OpenAIConfig configures the chat completion client.
type OpenAIConfig struct {
	Token          string   `yaml:"token" envconfig:"OPENAI_TOKEN"`
	Model          string   `yaml:"model" envconfig:"OPENAI_MODEL"`
	BaseURL        string   `yaml:"base_url" envconfig:"OPENAI_BASE_URL"`
	MaxTokens      int      `yaml:"max_tokens" envconfig:"OPENAI_MAX_TOKENS"`
	Temperature    *float32 `yaml:"temperature" envconfig:"OPENAI_TEMPERATURE"`
	TimeoutSeconds int      `yaml:"timeout_seconds" envconfig:"OPENAI_TIMEOUT_SECONDS"`
}

// ResourcesConfig points at an on-disk directory whose files take
// precedence over the embedded prompts, messages and images.
type ResourcesConfig struct {
	Dir string `yaml:"dir" envconfig:"RESOURCES_DIR"`
}

// Config is the full bot configuration: the shared core plus the bot sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	OpenAI    OpenAIConfig    `yaml:"openai"`
	Resources ResourcesConfig `yaml:"resources"`
}

const (
	defaultMaxTokens      = 1000
	defaultTemperature    = 0.9
	defaultTimeoutSeconds = 60
)

// Load reads the YAML file at path, applies the environment overlay and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core and bot sections and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	ai := &cfg.OpenAI
	ai.Token = strings.TrimSpace(ai.Token)
	if ai.Token == "" {
		return fmt.Errorf("openai token is required")
	}
	if strings.TrimSpace(ai.Model) == "" {
		ai.Model = openai.GPT4oMini
	}
	if ai.MaxTokens < 0 || ai.TimeoutSeconds < 0 {
		return fmt.Errorf("openai.max_tokens and openai.timeout_seconds must be >= 0")
	}
	if ai.MaxTokens == 0 {
		ai.MaxTokens = defaultMaxTokens
	}
	if ai.Temperature == nil {
		t := float32(defaultTemperature)
		ai.Temperature = &t
	}
	if *ai.Temperature < 0 || *ai.Temperature > 2 {
		return fmt.Errorf("openai.temperature must be within [0, 2], got %v", *ai.Temperature)
	}
	if ai.TimeoutSeconds == 0 {
		ai.TimeoutSeconds = defaultTimeoutSeconds
	}
	cfg.Resources.Dir = strings.TrimSpace(cfg.Resources.Dir)
	return nil
}
