// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
	Listings  ListingsConfig  `yaml:"listings"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// AssistantConfig contains the chat-completion backend configuration.
// The model is a fixed deployment choice, not a per-request parameter.
type AssistantConfig struct {
	Endpoint string        `yaml:"endpoint"` // empty = api.openai.com
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"` // default "gpt-4o-mini"
	Timeout  time.Duration `yaml:"timeout"`
}

// ListingsConfig points at the property-listing API.
type ListingsConfig struct {
	BaseURL string `yaml:"base_url"` // e.g. "https://listings.example.com/api/v1"
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Type string `yaml:"type"` // "memory" (default), "sqlite" or "postgres"
	DSN  string `yaml:"dsn"`  // postgres connection string
	Path string `yaml:"path"` // sqlite database file
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 60 * time.Second,
		},
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnvOverrides lets the environment win over file config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_ENDPOINT"); v != "" {
		cfg.Assistant.Endpoint = v
	}
	if v := os.Getenv("PROPERTY_API_BASE_URL"); v != "" {
		cfg.Listings.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
		cfg.Store.Type = "postgres"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = "gpt-4o-mini"
	}
	if cfg.Assistant.Timeout == 0 {
		cfg.Assistant.Timeout = 60 * time.Second
	}
	if cfg.Listings.BaseURL == "" {
		cfg.Listings.BaseURL = "http://localhost:3000/api/v1"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "chat.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 60 * time.Second
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
}
