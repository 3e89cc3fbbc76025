// Package keychain keeps the Connected App client secret and refresh token in
// platform-native secure storage (macOS Keychain, Linux secret-tool). Callers
// fall back to the config file when secure storage is unavailable.
package keychain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

const (
	serviceName = "sfbulk"
	secretsKey  = "connected_app"
)

// StorageBackend represents where secrets are stored
type StorageBackend string

const (
	BackendKeychain   StorageBackend = "Keychain"    // macOS Keychain
	BackendSecretTool StorageBackend = "secret-tool" // Linux libsecret
	BackendMemory     StorageBackend = "memory"      // tests only
	BackendFile       StorageBackend = "config file" // File fallback
)

var (
	// ErrNotFound indicates no secrets exist in secure storage
	ErrNotFound = errors.New("no secrets found in secure storage")
	// ErrUnavailable indicates the platform has no secure storage
	ErrUnavailable = errors.New("secure storage is not available")
)

// Secrets are the credentials kept out of config.json when possible.
type Secrets struct {
	ClientSecret string `json:"clientSecret,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// IsEmpty reports whether neither value is set.
func (s Secrets) IsEmpty() bool {
	return s.ClientSecret == "" && s.RefreshToken == ""
}

type store interface {
	backend() StorageBackend
	// read returns ErrNotFound when nothing is stored
	read() ([]byte, error)
	write(data []byte) error
	remove() error
}

var (
	mu     sync.Mutex
	active = platformStore()
)

func current() store {
	mu.Lock()
	defer mu.Unlock()
	return active
}

// UseMemoryStore swaps secure storage for an in-process store and returns a
// func restoring the previous one (for testing only).
func UseMemoryStore() (restore func()) {
	return swap(&memoryStore{})
}

// UseNoStore behaves as a platform without secure storage until restore is
// called (for testing only).
func UseNoStore() (restore func()) {
	return swap(nil)
}

func swap(s store) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := active
	active = s
	return func() {
		mu.Lock()
		defer mu.Unlock()
		active = prev
	}
}

// GetSecrets retrieves the secrets from secure storage
func GetSecrets() (*Secrets, error) {
	s := current()
	if s == nil {
		return nil, ErrUnavailable
	}

	data, err := s.read()
	if err != nil {
		return nil, err
	}

	var secrets Secrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets from %s: %w", s.backend(), err)
	}
	return &secrets, nil
}

// SetSecrets stores the secrets in secure storage, replacing any existing entry
func SetSecrets(secrets *Secrets) error {
	s := current()
	if s == nil {
		return ErrUnavailable
	}

	data, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to serialize secrets: %w", err)
	}
	return s.write(data)
}

// DeleteSecrets removes the secrets from secure storage. Nothing stored is not an error.
func DeleteSecrets() error {
	s := current()
	if s == nil {
		return nil
	}
	if err := s.remove(); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// HasStoredSecrets returns true if secrets exist in secure storage
func HasStoredSecrets() bool {
	_, err := GetSecrets()
	return err == nil
}

// GetStorageBackend returns where secrets currently live: the secure store
// when it holds them, otherwise the config file.
func GetStorageBackend() StorageBackend {
	s := current()
	if s != nil && HasStoredSecrets() {
		return s.backend()
	}
	return BackendFile
}

// IsSecureStorage returns true if the platform has a secure store
func IsSecureStorage() bool {
	return current() != nil
}

type memoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (m *memoryStore) backend() StorageBackend { return BackendMemory }

func (m *memoryStore) read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return m.data, nil
}

func (m *memoryStore) write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memoryStore) remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
