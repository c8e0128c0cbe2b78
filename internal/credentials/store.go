// Package credentials holds the named API keys used to authenticate
// requests against the PDF providers.
package credentials

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"pdfbatch/internal/config"
	"pdfbatch/internal/util"
)

// ErrCredentialNotFound is returned when a credential name is not registered.
var ErrCredentialNotFound = errors.New("credential not found")

// Credential is a static API key. It is never refreshed.
type Credential struct {
	Name   string
	APIKey string
}

// String masks the key so a Credential is safe to log.
func (c Credential) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, util.MaskSecret(c.APIKey))
}

// Store is a thread-safe registry of credentials keyed by name.
type Store struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{
		creds: make(map[string]Credential),
	}
}

// NewStoreFromConfig registers every configured credential, expanding
// environment references in the keys. A key that expands to nothing is an error.
func NewStoreFromConfig(cfgs map[string]config.CredentialConfig) (*Store, error) {
	s := NewStore()
	for name, c := range cfgs {
		key := util.ExpandEnvUniversal(c.APIKey)
		if key == "" {
			return nil, fmt.Errorf("credential '%s': api_key '%s' expanded to an empty value", name, c.APIKey)
		}
		s.Set(name, key)
	}
	return s, nil
}

// Set stores (or replaces) a credential.
func (s *Store) Set(name, apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[name] = Credential{Name: name, APIKey: apiKey}
}

// Resolve returns the credential registered under name.
func (s *Store) Resolve(name string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[name]
	if !ok {
		return Credential{}, fmt.Errorf("%w: '%s'", ErrCredentialNotFound, name)
	}
	return c, nil
}

// Names returns the registered credential names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.creds))
	for name := range s.creds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
