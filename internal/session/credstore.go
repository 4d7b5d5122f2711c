package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	appName   = "sodam"
	credsFile = "credentials.json"
)

// Identity is the authenticated user plus the bearer token attached to
// every REST call and to the socket handshake.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

type CredentialStore interface {
	Save(identity *Identity) error
	Load() (*Identity, error)
	Clear() error
}

type fileCredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCredentialStore persists the identity as JSON under the user
// config directory so a restart can resume the session.
func NewFileCredentialStore() CredentialStore {
	configDir := getConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create config directory: %v\n", err)
	}

	return &fileCredentialStore{
		path: filepath.Join(configDir, credsFile),
	}
}

// NewFileCredentialStoreAt is the same store rooted at an explicit path.
func NewFileCredentialStoreAt(path string) CredentialStore {
	return &fileCredentialStore{path: path}
}

func (s *fileCredentialStore) Save(identity *Identity) error {
	data, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

func (s *fileCredentialStore) Load() (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	return &identity, nil
}

func (s *fileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// getConfigDir returns the appropriate configuration directory based on OS
func getConfigDir() string {
	var configDir string

	if os.Getenv("XDG_CONFIG_HOME") != "" {
		configDir = filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName)
	} else if home, err := os.UserHomeDir(); err == nil {
		switch {
		case fileExists(filepath.Join(home, ".config")):
			// Linux/Unix: ~/.config/sodam
			configDir = filepath.Join(home, ".config", appName)
		default:
			// Windows: %USERPROFILE%\AppData\Roaming\sodam
			// macOS: ~/Library/Application Support/sodam
			configDir = filepath.Join(home, getOSSpecificDir(), appName)
		}
	} else {
		// Last resort: current directory
		configDir = "."
	}

	return configDir
}

func getOSSpecificDir() string {
	if os.Getenv("APPDATA") != "" {
		return filepath.Join("AppData", "Roaming")
	}

	return filepath.Join("Library", "Application Support")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
