package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server     ServerConfig     `envPrefix:"SERVER_"`
	Database   DatabaseConfig   `envPrefix:"DATABASE_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`
	Storefront StorefrontConfig `envPrefix:"STOREFRONT_"`
	Chat       ChatConfig       `envPrefix:"CHAT_"`
	Search     SearchConfig     `envPrefix:"SEARCH_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

type DatabaseConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"shop_assistant"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type StorefrontConfig struct {
	ShopURL     string `env:"SHOP_URL,required"`
	AccessToken string `env:"ACCESS_TOKEN,required"`
	APIVersion  string `env:"API_VERSION" envDefault:"2024-10"`
	PageSize    int    `env:"PAGE_SIZE" envDefault:"50"`
}

type ChatConfig struct {
	GoogleAIAPIKey  string `env:"GOOGLE_AI_API_KEY"`
	Model           string `env:"MODEL" envDefault:"googleai/gemini-2.5-flash"`
	ReasoningEffort string `env:"REASONING_EFFORT" envDefault:"low"`
	PrimaryLanguage string `env:"PRIMARY_LANGUAGE" envDefault:"Vietnamese"`
	ContextLimit    int    `env:"CONTEXT_LIMIT" envDefault:"200"`
}

type SearchConfig struct {
	IndexName string `env:"INDEX_NAME" envDefault:"products"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
