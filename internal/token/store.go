package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store persists bearer tokens keyed by 1-based account number.
type Store interface {
	// Load returns every stored token. Implementations return an empty map
	// rather than an error when nothing has been stored yet.
	Load() (map[string]string, error)
	Get(key string) (string, bool, error)
	// Set stores tok under key and reports whether the stored value changed.
	Set(key, tok string) (bool, error)
	Delete(key string) error
	Clear() error
}

// Backend names accepted by Open.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

// Open returns the store for the named backend. path is only used by the
// file backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendKeyring:
		return OpenKeyringStore()
	default:
		return nil, fmt.Errorf("unknown token store %q (expected file|keyring)", backend)
	}
}

// FileStore keeps tokens in a JSON object on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the token file. A missing, unreadable or malformed file loads
// as empty.
func (s *FileStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

func (s *FileStore) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("Token file not found, creating new", "path", s.path)
		return map[string]string{}
	}
	if err != nil {
		slog.Error("Error reading token file", "path", s.path, "error", err)
		return map[string]string{}
	}

	tokens := map[string]string{}
	if err := json.Unmarshal(data, &tokens); err != nil {
		slog.Error("Error parsing token file", "path", s.path, "error", err)
		return map[string]string{}
	}
	return tokens
}

func (s *FileStore) save(tokens map[string]string) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Get returns the token for key.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.load()[key]
	return tok, ok && tok != "", nil
}

// Set writes the file only when the token differs from the stored one.
func (s *FileStore) Set(key, tok string) (bool, error) {
	if tok == "" {
		return false, errors.New("token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := s.load()
	if tokens[key] == tok {
		return false, nil
	}
	tokens[key] = tok
	if err := s.save(tokens); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes one token.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := s.load()
	if _, ok := tokens[key]; !ok {
		return nil
	}
	delete(tokens, key)
	return s.save(tokens)
}

// Clear removes the token file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
