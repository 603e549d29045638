package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
)

// Store holds the durable access token for one panel context. Saving an
// empty token removes the stored value entirely; Load reports whether a
// token is present.
type Store interface {
	Load() (string, bool, error)
	Save(token string) error
	Clear() error
}

type tokenCache struct {
	Tokens map[string]string `json:"tokens"`
}

// FileStore keeps tokens in a JSON cache file keyed by context name.
type FileStore struct {
	Path    string
	Context string
}

func (s *FileStore) Load() (string, bool, error) {
	cache, err := loadTokenCache(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	token, ok := cache.Tokens[s.key()]
	if token == "" {
		return "", false, nil
	}
	return token, ok, nil
}

func (s *FileStore) Save(token string) error {
	if token == "" {
		return s.Clear()
	}
	cache, err := loadTokenCache(s.Path)
	if err != nil {
		cache = &tokenCache{Tokens: map[string]string{}}
	}
	cache.Tokens[s.key()] = token
	return saveTokenCache(s.Path, cache)
}

func (s *FileStore) Clear() error {
	cache, err := loadTokenCache(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	delete(cache.Tokens, s.key())
	return saveTokenCache(s.Path, cache)
}

func (s *FileStore) key() string {
	if s.Context == "" {
		return "default"
	}
	return s.Context
}

func loadTokenCache(path string) (*tokenCache, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cache tokenCache
	if err := json.Unmarshal(content, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	if cache.Tokens == nil {
		cache.Tokens = map[string]string{}
	}
	return &cache, nil
}

func saveTokenCache(path string, cache *tokenCache) error {
	if cache == nil {
		return errors.New("token cache is nil")
	}
	if cache.Tokens == nil {
		cache.Tokens = map[string]string{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	content, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

// KeyringStore keeps the token in the OS keychain.
type KeyringStore struct {
	Service string
	Context string
}

func (s *KeyringStore) Load() (string, bool, error) {
	token, err := keyring.Get(s.service(), s.user())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read keychain: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (s *KeyringStore) Save(token string) error {
	if token == "" {
		return s.Clear()
	}
	if err := keyring.Set(s.service(), s.user(), token); err != nil {
		return fmt.Errorf("failed to write keychain: %w", err)
	}
	return nil
}

func (s *KeyringStore) Clear() error {
	err := keyring.Delete(s.service(), s.user())
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keychain: %w", err)
	}
	return nil
}

func (s *KeyringStore) service() string {
	if s.Service == "" {
		return "panelctl"
	}
	return s.Service
}

func (s *KeyringStore) user() string {
	if s.Context == "" {
		return "default"
	}
	return s.Context
}

// MemoryStore is an in-memory Store for tests and short-lived credentials.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryStore) Load() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != "", nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
