// Package config loads runtime configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig is the on-disk configuration shape.
type YAMLConfig struct {
	AI struct {
		Provider string `yaml:"provider"`
		Token    string `yaml:"token"`
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
	} `yaml:"ai"`

	Data struct {
		Source          string `yaml:"source"`
		CachePath       string `yaml:"cache_path"`
		AlpacaKeyID     string `yaml:"alpaca_key_id"`
		AlpacaSecretKey string `yaml:"alpaca_secret_key"`
	} `yaml:"data"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Config is the resolved runtime configuration.
type Config struct {
	// HTTP service port.
	Port int

	// AI provider: "anthropic", "openai" or "ollama". Empty disables AI.
	AIProvider string
	AIKey      string
	AIBase     string
	AIModel    string

	// Market data source: "yahoo" or "alpaca".
	DataSource string

	// SQLite bar cache path; empty disables caching.
	CachePath string

	// Alpaca credentials, used when DataSource is "alpaca".
	AlpacaKeyID     string
	AlpacaSecretKey string
}

// DefaultConfig is used when no file or env override applies.
var DefaultConfig = Config{
	Port:       19527,
	AIProvider: "",
	AIBase:     "",
	AIModel:    "",
	DataSource: "yahoo",
	CachePath:  "",
}

// LoadFromFile reads a YAML config, applying defaults for absent fields.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	config := DefaultConfig

	if yc.AI.Provider != "" {
		config.AIProvider = yc.AI.Provider
	}
	if yc.AI.Token != "" {
		config.AIKey = yc.AI.Token
	}
	if yc.AI.BaseURL != "" {
		config.AIBase = yc.AI.BaseURL
	}
	if yc.AI.Model != "" {
		config.AIModel = yc.AI.Model
	}

	if yc.Data.Source != "" {
		config.DataSource = yc.Data.Source
	}
	if yc.Data.CachePath != "" {
		config.CachePath = yc.Data.CachePath
	}
	if yc.Data.AlpacaKeyID != "" {
		config.AlpacaKeyID = yc.Data.AlpacaKeyID
	}
	if yc.Data.AlpacaSecretKey != "" {
		config.AlpacaSecretKey = yc.Data.AlpacaSecretKey
	}

	if yc.Server.Port > 0 {
		config.Port = yc.Server.Port
	}

	return &config, nil
}

// GetConfig resolves configuration: env vars override the file, the file
// overrides defaults. A missing or unreadable file only warns.
func GetConfig(configPath string) *Config {
	config := DefaultConfig

	if configPath != "" {
		if cfg, err := LoadFromFile(configPath); err == nil {
			config = *cfg
		} else {
			fmt.Fprintf(os.Stderr, "warning: cannot load config %s: %v\n", configPath, err)
		}
	}

	if v := os.Getenv("INVESTORMATE_AI_PROVIDER"); v != "" {
		config.AIProvider = v
	}
	if key := getAIKey(config.AIProvider); key != "" {
		config.AIKey = key
	}
	if url := os.Getenv("INVESTORMATE_AI_BASE_URL"); url != "" {
		config.AIBase = url
	}
	if model := os.Getenv("INVESTORMATE_AI_MODEL"); model != "" {
		config.AIModel = model
	}

	if v := os.Getenv("INVESTORMATE_DATA_SOURCE"); v != "" {
		config.DataSource = v
	}
	if v := os.Getenv("INVESTORMATE_CACHE_PATH"); v != "" {
		config.CachePath = v
	}
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		config.AlpacaKeyID = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		config.AlpacaSecretKey = v
	}

	return &config
}

// getAIKey checks the provider's conventional env vars first, then the
// generic one.
func getAIKey(provider string) string {
	switch provider {
	case "anthropic":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return key
		}
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key
		}
	}
	return os.Getenv("INVESTORMATE_AI_KEY")
}
