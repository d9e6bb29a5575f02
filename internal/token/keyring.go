package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const (
	// ServiceName is the keyring service name for coubctl
	ServiceName = "coubctl"
	// TokensKey holds the JSON-encoded account token map
	TokensKey = "coubctl-tokens"
	// CredentialsDirEnvVarName controls the file keyring root directory.
	// Files are stored under: <dir>/coubctl/keyring
	CredentialsDirEnvVarName = "COUBCTL_CREDENTIALS_DIR"
	// KeyringPasswordEnvVarName sets the file keyring passphrase for non-interactive setups.
	KeyringPasswordEnvVarName = "COUBCTL_KEYRING_PASSWORD"
	// DBUSSessionAddressEnvVarName is used to detect Linux headless mode.
	DBUSSessionAddressEnvVarName = "DBUS_SESSION_BUS_ADDRESS"
)

// KeyringProvider is the subset of keyring.Keyring the store needs.
type KeyringProvider interface {
	Get(key string) (keyring.Item, error)
	Set(item keyring.Item) error
	Remove(key string) error
}

func keyringFileDir() string {
	if dir := strings.TrimSpace(os.Getenv(CredentialsDirEnvVarName)); dir != "" {
		return filepath.Join(dir, ServiceName, "keyring")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.Getenv("HOME")
	}
	configDir = strings.TrimSpace(configDir)
	if configDir == "" {
		return string(os.PathSeparator) + filepath.Join(ServiceName, "keyring")
	}
	return filepath.Join(configDir, ServiceName, "keyring")
}

func keyringFilePassword() string {
	if password := strings.TrimSpace(os.Getenv(KeyringPasswordEnvVarName)); password != "" {
		return password
	}
	return ServiceName
}

func shouldForceFileBackend(goos string, dbusAddr string) bool {
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

// openOSKeyring is swapped in tests.
var openOSKeyring = func() (KeyringProvider, error) {
	cfg := keyring.Config{
		ServiceName:                    ServiceName,
		KeychainTrustApplication:       true,
		KeychainSynchronizable:         false,
		KeychainAccessibleWhenUnlocked: true,
		FileDir:                        keyringFileDir(),
		FilePasswordFunc:               func(_ string) (string, error) { return keyringFilePassword(), nil },
	}
	if shouldForceFileBackend(runtime.GOOS, os.Getenv(DBUSSessionAddressEnvVarName)) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return keyring.Open(cfg)
}

// KeyringStore keeps the token map as a single keyring item.
type KeyringStore struct {
	ring KeyringProvider
	mu   sync.Mutex
}

// OpenKeyringStore opens the OS keyring.
func OpenKeyringStore() (*KeyringStore, error) {
	ring, err := openOSKeyring()
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewKeyringStore(ring), nil
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring KeyringProvider) *KeyringStore {
	return &KeyringStore{ring: ring}
}

func (s *KeyringStore) load() (map[string]string, error) {
	item, err := s.ring.Get(TokensKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens from keyring: %w", err)
	}

	tokens := map[string]string{}
	if err := json.Unmarshal(item.Data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyring tokens: %w", err)
	}
	return tokens, nil
}

func (s *KeyringStore) save(tokens map[string]string) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	err = s.ring.Set(keyring.Item{
		Key:   TokensKey,
		Label: "coubctl account tokens",
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to store tokens in keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *KeyringStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return "", false, err
	}
	tok, ok := tokens[key]
	return tok, ok && tok != "", nil
}

func (s *KeyringStore) Set(key, tok string) (bool, error) {
	if tok == "" {
		return false, errors.New("token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return false, err
	}
	if tokens[key] == tok {
		return false, nil
	}
	tokens[key] = tok
	if err := s.save(tokens); err != nil {
		return false, err
	}
	return true, nil
}

func (s *KeyringStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[key]; !ok {
		return nil
	}
	delete(tokens, key)
	return s.save(tokens)
}

// Clear removes the keyring item. A missing item is not an error.
func (s *KeyringStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ring.Remove(TokensKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete tokens from keyring: %w", err)
	}
	return nil
}
