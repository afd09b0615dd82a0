// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// ErrTokenNotFound is returned when no token is stored under a name.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore persists repository API keys in a TOML file kept private to
// the user (0600). The spec references tokens by name; tokens never live
// in the spec itself.
type TokenStore struct {
	path string
}

// NewTokenStore binds a store to its file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the store's file location.
func (s *TokenStore) Path() string { return s.path }

func (s *TokenStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}
	tokens := map[string]string{}
	if err := toml.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token store %s: %w", s.path, err)
	}
	return tokens, nil
}

func (s *TokenStore) save(tokens map[string]string) error {
	data, err := toml.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode token store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create token store directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token store: %w", err)
	}
	return nil
}

// Set stores a token under a name, replacing any previous value.
func (s *TokenStore) Set(name, token string) error {
	if name == "" {
		return errors.New("token name must not be empty")
	}
	tokens, err := s.load()
	if err != nil {
		return err
	}
	tokens[name] = token
	return s.save(tokens)
}

// Get returns the token stored under a name.
func (s *TokenStore) Get(name string) (string, error) {
	tokens, err := s.load()
	if err != nil {
		return "", err
	}
	token, ok := tokens[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTokenNotFound, name)
	}
	return token, nil
}

// Delete removes the token stored under a name.
func (s *TokenStore) Delete(name string) error {
	tokens, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[name]; !ok {
		return fmt.Errorf("%w: %q", ErrTokenNotFound, name)
	}
	delete(tokens, name)
	return s.save(tokens)
}

// List returns the stored token names, sorted. Token values stay in the
// store.
func (s *TokenStore) List() ([]string, error) {
	tokens, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
