package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"firemaps/pkg/config"
)

// DefaultName is the entry used when no name is given
const DefaultName = "default"

// ShareToken is a figshare private-link token kept between runs
type ShareToken struct {
	Name         string    `json:"name"`
	Token        string    `json:"token"`
	SharedURL    string    `json:"shared_url,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is a place share tokens can be kept
type TokenStore interface {
	Store(token *ShareToken) error
	Retrieve(name string) (*ShareToken, error)
	List() ([]*ShareToken, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager tries its stores in order
type Manager struct {
	stores []TokenStore
}

// NewManager builds the store chain selected by cfg.Store: "keyring",
// "file", "env", or "auto" for keyring then encrypted file then environment.
func NewManager(cfg config.AuthConfig) (*Manager, error) {
	var stores []TokenStore

	useKeyring := cfg.Store == "" || cfg.Store == "auto" || cfg.Store == "keyring"
	useFile := cfg.Store == "" || cfg.Store == "auto" || cfg.Store == "file"

	if useKeyring {
		keyringStore, err := NewKeyringStore()
		if err == nil {
			stores = append(stores, keyringStore)
		} else if cfg.Store == "keyring" {
			return nil, err
		}
	}

	if useFile {
		path := cfg.FilePath
		if path == "" {
			dir, err := getConfigDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get config directory: %w", err)
			}
			path = filepath.Join(dir, "tokens.enc")
		}
		fileStore, err := NewEncryptedFileStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create encrypted store: %w", err)
		}
		stores = append(stores, fileStore)
	}

	stores = append(stores, NewEnvironmentStore())
	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a manager over the given stores
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the token in the first store that accepts it
func (m *Manager) Store(token *ShareToken) error {
	if token == nil || token.Token == "" {
		return ErrInvalidToken
	}
	if token.Name == "" {
		token.Name = DefaultName
	}
	token.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(token)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve returns the token from the first store holding it
func (m *Manager) Retrieve(name string) (*ShareToken, error) {
	if name == "" {
		name = DefaultName
	}
	for _, store := range m.stores {
		if tok, err := store.Retrieve(name); err == nil && tok != nil {
			return tok, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, name)
}

// List merges every store's tokens, keeping the newest per name
func (m *Manager) List() ([]*ShareToken, error) {
	byName := make(map[string]*ShareToken)
	for _, store := range m.stores {
		tokens, err := store.List()
		if err != nil {
			continue
		}
		for _, tok := range tokens {
			if existing, ok := byName[tok.Name]; !ok || tok.LastModified.After(existing.LastModified) {
				byName[tok.Name] = tok
			}
		}
	}

	result := make([]*ShareToken, 0, len(byName))
	for _, tok := range byName {
		result = append(result, tok)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes the token from every store holding it
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultName
	}
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, name)
	}
	return nil
}

// ResolveToken fills cfg.Source.ShareToken from the stores when neither the
// config nor the shared URL provides one
func ResolveToken(cfg *config.Config, m *Manager) {
	if cfg.Token() != "" || m == nil {
		return
	}
	if tok, err := m.Retrieve(DefaultName); err == nil {
		cfg.Source.ShareToken = tok.Token
		if cfg.Source.SharedURL == "" && tok.SharedURL != "" {
			cfg.Source.SharedURL = tok.SharedURL
		}
	}
}

func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "firemaps")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "firemaps")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "firemaps")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "firemaps")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Mask hides all but the first and last four characters of a token
func Mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
