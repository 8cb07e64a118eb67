package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"firemaps/pkg/storage"
)

// PassphraseEnv overrides the generated passphrase of the encrypted store
const PassphraseEnv = "FIREMAPS_PASSPHRASE"

const (
	envelopeVersion  = 1
	saltSize         = 32
	keySize          = 32
	kdfIterations    = 100000
	passphraseFile   = ".passphrase"
	passphraseLength = 32
)

// envelope is the on-disk form: a salt for the key derivation and the
// AES-GCM sealed JSON map of tokens, both base64
type envelope struct {
	Version  int       `json:"version"`
	Salt     string    `json:"salt"`
	Sealed   string    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore keeps tokens in one AES-GCM encrypted file whose key is
// derived from a passphrase with PBKDF2
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// NewEncryptedFileStore opens (or prepares) the store at path. The
// passphrase comes from PassphraseEnv, or from a .passphrase file beside
// the store that is generated on first use.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := loadPassphrase(filepath.Join(filepath.Dir(path), passphraseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Store(token *ShareToken) error {
	if token == nil || token.Name == "" || token.Token == "" {
		return ErrInvalidToken
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tokens, salt, err := e.read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load token file: %w", err)
	}
	tokens[token.Name] = *token
	return e.write(tokens, salt)
}

func (e *EncryptedFileStore) Retrieve(name string) (*ShareToken, error) {
	if name == "" {
		return nil, ErrInvalidToken
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens, _, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token file: %w", err)
	}

	tok, ok := tokens[name]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &tok, nil
}

func (e *EncryptedFileStore) List() ([]*ShareToken, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens, _, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return []*ShareToken{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token file: %w", err)
	}

	out := make([]*ShareToken, 0, len(tokens))
	for name := range tokens {
		tok := tokens[name]
		out = append(out, &tok)
	}
	return out, nil
}

// Delete removes name, and the file itself once it holds no tokens
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidToken
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tokens, salt, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load token file: %w", err)
	}
	if _, ok := tokens[name]; !ok {
		return ErrTokenNotFound
	}

	delete(tokens, name)
	if len(tokens) == 0 {
		return os.Remove(e.path)
	}
	return e.write(tokens, salt)
}

func (e *EncryptedFileStore) Exists(name string) bool {
	tok, err := e.Retrieve(name)
	return err == nil && tok != nil
}

// read returns the decrypted tokens and the file's salt. A missing file
// yields an empty map, a nil salt and an os.ErrNotExist error.
func (e *EncryptedFileStore) read() (map[string]ShareToken, []byte, error) {
	tokens := make(map[string]ShareToken)

	raw, err := os.ReadFile(e.path)
	if err != nil {
		return tokens, nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("token file is not valid JSON: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, nil, fmt.Errorf("unsupported token file version %d", env.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Sealed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode sealed data: %w", err)
	}

	aead, err := e.aead(salt)
	if err != nil {
		return nil, nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, nil, errors.New("sealed data too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt token file: %w", err)
	}

	if err := json.Unmarshal(plain, &tokens); err != nil {
		return nil, nil, fmt.Errorf("failed to parse tokens: %w", err)
	}
	return tokens, salt, nil
}

// write seals tokens and replaces the file, keeping salt when one exists
func (e *EncryptedFileStore) write(tokens map[string]ShareToken, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	aead, err := e.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	raw, err := json.MarshalIndent(envelope{
		Version:  envelopeVersion,
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Sealed:   base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, plain, nil)),
		Modified: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	return storage.WriteAtomicMode(e.path, bytes.NewReader(raw), 0600)
}

func (e *EncryptedFileStore) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, kdfIterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func loadPassphrase(path string) ([]byte, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return []byte(pass), nil
	}

	if existing, err := os.ReadFile(path); err == nil && len(existing) > 0 {
		return existing, nil
	}

	b := make([]byte, passphraseLength)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := []byte(base64.URLEncoding.EncodeToString(b))
	if err := os.WriteFile(path, pass, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}
