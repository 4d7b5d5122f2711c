package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sodam-chat/sodam/internal/env"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Socket  SocketConfig  `koanf:"socket"`
	Chat    ChatConfig    `koanf:"chat"`
	Logging LoggingConfig `koanf:"logging"`
}

type ServerConfig struct {
	BaseURL        string        `koanf:"base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	MaxRetries     int           `koanf:"max_retries"`
}

type SocketConfig struct {
	// URL defaults to the server base URL; the adapter rewrites the
	// scheme to ws(s) itself.
	URL               string        `koanf:"url"`
	HandshakeTimeout  time.Duration `koanf:"handshake_timeout"`
	ReconnectAttempts int           `koanf:"reconnect_attempts"`
	ReconnectDelay    time.Duration `koanf:"reconnect_delay"`
}

type ChatConfig struct {
	HistoryPageSize int `koanf:"history_page_size"`
	// TypingIdle is how long after the last keystroke the client sends
	// its own typing=false. TypingExpiry clears a remote user's typing
	// flag when no stop event ever arrives.
	TypingIdle   time.Duration `koanf:"typing_idle"`
	TypingExpiry time.Duration `koanf:"typing_expiry"`
}

type LoggingConfig struct {
	FilePath string `koanf:"file_path"`
	Level    string `koanf:"level"`
	Backend  string `koanf:"backend"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if it exists
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// Only return error if file was explicitly provided but failed to load
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply defaults and environment variable overrides
	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "server.base_url", "http://localhost:8080")
	setDefault(k, "server.request_timeout", 10*time.Second)
	setDefault(k, "server.max_retries", 2)

	setDefault(k, "socket.handshake_timeout", 10*time.Second)
	setDefault(k, "socket.reconnect_attempts", 5)
	setDefault(k, "socket.reconnect_delay", time.Second)

	setDefault(k, "chat.history_page_size", 50)
	setDefault(k, "chat.typing_idle", 3*time.Second)
	setDefault(k, "chat.typing_expiry", 5*time.Second)

	setDefault(k, "logging.file_path", "./logs/")
	setDefault(k, "logging.level", "info")
	setDefault(k, "logging.backend", "zap")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if baseURL := env.GetString("SODAM_BASE_URL", ""); baseURL != "" {
		k.Set("server.base_url", baseURL)
	}
	if socketURL := env.GetString("SODAM_SOCKET_URL", ""); socketURL != "" {
		k.Set("socket.url", socketURL)
	}
	if timeout := env.GetInt("SODAM_REQUEST_TIMEOUT_SECONDS", 0); timeout > 0 {
		k.Set("server.request_timeout", time.Duration(timeout)*time.Second)
	}
	if attempts := env.GetInt("SODAM_RECONNECT_ATTEMPTS", 0); attempts > 0 {
		k.Set("socket.reconnect_attempts", attempts)
	}
	if pageSize := env.GetInt("SODAM_HISTORY_PAGE_SIZE", 0); pageSize > 0 {
		k.Set("chat.history_page_size", pageSize)
	}

	if filePath := env.GetString("SODAM_LOG_FILE_PATH", ""); filePath != "" {
		k.Set("logging.file_path", filePath)
	}
	if level := env.GetString("SODAM_LOG_LEVEL", ""); level != "" {
		k.Set("logging.level", level)
	}
	if backend := env.GetString("SODAM_LOG_BACKEND", ""); backend != "" {
		k.Set("logging.backend", backend)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
