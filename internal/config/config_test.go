package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.RequestTimeout != 10*time.Second {
		t.Errorf("request timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxRetries != 2 {
		t.Errorf("max retries = %d", cfg.Server.MaxRetries)
	}
	if cfg.Socket.ReconnectAttempts != 5 || cfg.Socket.ReconnectDelay != time.Second {
		t.Errorf("socket reconnect = %d/%v", cfg.Socket.ReconnectAttempts, cfg.Socket.ReconnectDelay)
	}
	if cfg.Chat.HistoryPageSize != 50 {
		t.Errorf("history page size = %d", cfg.Chat.HistoryPageSize)
	}
	if cfg.Chat.TypingIdle != 3*time.Second || cfg.Chat.TypingExpiry != 5*time.Second {
		t.Errorf("typing = %v/%v", cfg.Chat.TypingIdle, cfg.Chat.TypingExpiry)
	}
	if cfg.Logging.Backend != "zap" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  base_url: "https://chat.example.com"
  max_retries: 4
socket:
  reconnect_attempts: 9
chat:
  history_page_size: 25
logging:
  backend: "zerolog"
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.BaseURL != "https://chat.example.com" {
		t.Errorf("base url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.MaxRetries != 4 {
		t.Errorf("max retries = %d", cfg.Server.MaxRetries)
	}
	if cfg.Socket.ReconnectAttempts != 9 {
		t.Errorf("reconnect attempts = %d", cfg.Socket.ReconnectAttempts)
	}
	if cfg.Chat.HistoryPageSize != 25 {
		t.Errorf("history page size = %d", cfg.Chat.HistoryPageSize)
	}
	if cfg.Logging.Backend != "zerolog" || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	// Keys the file omits fall back to defaults.
	if cfg.Server.RequestTimeout != 10*time.Second {
		t.Errorf("request timeout = %v", cfg.Server.RequestTimeout)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  base_url: \"http://from-file:8080\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SODAM_BASE_URL", "http://from-env:9090")
	t.Setenv("SODAM_RECONNECT_ATTEMPTS", "7")
	t.Setenv("SODAM_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.BaseURL != "http://from-env:9090" {
		t.Errorf("env override lost: %q", cfg.Server.BaseURL)
	}
	if cfg.Socket.ReconnectAttempts != 7 {
		t.Errorf("reconnect attempts = %d", cfg.Socket.ReconnectAttempts)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("an explicitly named but missing config file must error")
	}
}
