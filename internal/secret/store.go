package secret

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
)

// SecretStore holds sensitive values such as database passwords.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Default returns the keychain on macOS and the environment elsewhere.
func Default() SecretStore {
	if runtime.GOOS == "darwin" {
		return NewKeychainStore()
	}
	return NewEnvStore()
}

// EnvStore reads secrets from CLIO_SECRET_<KEY> environment variables.
// Keys are upper-cased and every non-alphanumeric rune becomes '_'.
// Set and Delete only affect the current process.
type EnvStore struct {
	mu     sync.Mutex
	prefix string
}

func NewEnvStore() *EnvStore {
	return &EnvStore{prefix: "CLIO_SECRET_"}
}

func (e *EnvStore) name(key string) string {
	return e.prefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, key)
}

func (e *EnvStore) Set(key string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := os.Setenv(e.name(key), string(value)); err != nil {
		return fmt.Errorf("env set %s: %w", key, err)
	}
	return nil
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := os.LookupEnv(e.name(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Delete(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := os.Unsetenv(e.name(key)); err != nil {
		return fmt.Errorf("env delete %s: %w", key, err)
	}
	return nil
}

// ErrNoSecret is returned by Require when the key has no value.
var ErrNoSecret = errors.New("secret not found")

// Require is Get that treats a missing or empty secret as an error.
func Require(s SecretStore, key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", key, err)
	}
	if len(v) == 0 {
		return "", fmt.Errorf("%s: %w", key, ErrNoSecret)
	}
	return string(v), nil
}
