// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9090
assistant:
  model: gpt-4o
listings:
  base_url: https://listings.example.com/api/v1
store:
  type: sqlite
  path: /tmp/chat.db
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Assistant.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.Assistant.Model)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != "/tmp/chat.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assistant.Model != "gpt-4o-mini" {
		t.Errorf("default model = %q, want gpt-4o-mini", cfg.Assistant.Model)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("default store = %q, want memory", cfg.Store.Type)
	}
	if cfg.Listings.BaseURL == "" {
		t.Error("listings base url should default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PROPERTY_API_BASE_URL", "https://env.example.com/api/v1")
	t.Setenv("DATABASE_URL", "postgres://env/db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  type: memory\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assistant.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Assistant.APIKey)
	}
	if cfg.Listings.BaseURL != "https://env.example.com/api/v1" {
		t.Errorf("listings base url = %q", cfg.Listings.BaseURL)
	}
	// DATABASE_URL flips the backend to postgres.
	if cfg.Store.Type != "postgres" || cfg.Store.DSN != "postgres://env/db" {
		t.Errorf("store = %+v", cfg.Store)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
