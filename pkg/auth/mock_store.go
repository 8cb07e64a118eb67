package auth

import (
	"sync"
)

// MockStore is an in-memory TokenStore with error injection for tests
type MockStore struct {
	tokens map[string]*ShareToken
	mu     sync.RWMutex

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]*ShareToken)}
}

func (m *MockStore) Store(token *ShareToken) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if token == nil || token.Name == "" || token.Token == "" {
		return ErrInvalidToken
	}
	c := *token
	m.tokens[token.Name] = &c
	return nil
}

func (m *MockStore) Retrieve(name string) (*ShareToken, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" {
		return nil, ErrInvalidToken
	}
	tok, exists := m.tokens[name]
	if !exists {
		return nil, ErrTokenNotFound
	}
	c := *tok
	return &c, nil
}

func (m *MockStore) List() ([]*ShareToken, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := make([]*ShareToken, 0, len(m.tokens))
	for _, tok := range m.tokens {
		c := *tok
		tokens = append(tokens, &c)
	}
	return tokens, nil
}

func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return ErrInvalidToken
	}
	if _, exists := m.tokens[name]; !exists {
		return ErrTokenNotFound
	}
	delete(m.tokens, name)
	return nil
}

func (m *MockStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.tokens[name]
	return exists
}

// Count returns the number of stored tokens
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.tokens)
}

// NewMockManager creates a Manager backed by a single MockStore
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}
