package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port               int    `env:"PORT" envDefault:"8080"`
	DatabaseURL        string `env:"DATABASE_URL,required"`
	RedisURL           string `env:"REDIS_URL,required"`
	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	GeneratorModel     string `env:"GENERATOR_MODEL" envDefault:"claude-3-5-haiku-latest"`
	GeneratorTimeoutMS int    `env:"GENERATOR_TIMEOUT_MS" envDefault:"20000"`
	DefaultSession     string `env:"DEFAULT_SESSION" envDefault:"palette-studio"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.GeneratorTimeoutMS) * time.Millisecond
}

func (c *Config) Validate(isProduction bool) error {
	if c.AnthropicAPIKey == "" {
		log.Warn().Msg("ANTHROPIC_API_KEY is empty: palette generation will always use fallback palettes")
	}
	if isProduction {
		if c.GeneratorTimeoutMS < 1000 {
			return fmt.Errorf("GENERATOR_TIMEOUT_MS must be at least 1000 in production")
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
