package auth

import (
	"os"
	"time"
)

const (
	TokenEnv     = "FIREMAPS_SHARE_TOKEN"
	SharedURLEnv = "FIREMAPS_SHARED_URL"
)

// EnvironmentStore reads a token from the environment. It cannot be written.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(token *ShareToken) error {
	return ErrStoreUnavailable
}

// Retrieve answers for any name since the environment holds a single token
func (e *EnvironmentStore) Retrieve(name string) (*ShareToken, error) {
	value := os.Getenv(TokenEnv)
	if value == "" {
		return nil, ErrTokenNotFound
	}
	if name == "" {
		name = DefaultName
	}

	return &ShareToken{
		Name:         name,
		Token:        value,
		SharedURL:    os.Getenv(SharedURLEnv),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*ShareToken, error) {
	tok, err := e.Retrieve("")
	if err != nil {
		return []*ShareToken{}, nil
	}
	return []*ShareToken{tok}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(TokenEnv) != ""
}
