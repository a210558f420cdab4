package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type LLMProvider string

const (
	ProviderRelay  LLMProvider = "relay"
	ProviderOpenAI LLMProvider = "openai"
	ProviderMock   LLMProvider = "mock"
)

type Config struct {
	Service struct {
		Port string `env:"PORT" env-default:"3000"`
		Env  string `env:"ENV" env-default:"development"`
	}
	CORS struct {
		Origins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	}
	LLM struct {
		Provider    LLMProvider   `env:"LLM_PROVIDER" env-default:"relay"`
		BaseURL     string        `env:"LLM_API_URL"`
		APIKey      string        `env:"LLM_API_TOKEN"`
		Timeout     time.Duration `env:"LLM_TIMEOUT" env-default:"30s"`
		OpenAIModel string        `env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	}
}

func MustLoad() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Service.Env == "production"
}
