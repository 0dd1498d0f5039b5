// Package client is the Go SDK for the titula API: token storage,
// identity resolution, route guarding, and home dispatch.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StoredIdentity is the canonical cached-identity shape written at
// login. It is the only identity representation the store knows.
type StoredIdentity struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// storeFile is the on-disk layout. SelectedPeriodID is a user
// preference, not session state: Clear must leave it alone.
type storeFile struct {
	Token            string          `json:"token,omitempty"`
	Identity         *StoredIdentity `json:"identity,omitempty"`
	SelectedPeriodID string          `json:"selected_period_id,omitempty"`
}

// TokenStore is a file-backed session store. Safe for concurrent use
// within one process.
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// NewTokenStore builds a TokenStore over the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// DefaultTokenStore places the store file under the user config dir.
func DefaultTokenStore() (*TokenStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return NewTokenStore(filepath.Join(dir, "titula", "session.json")), nil
}

// Token returns the stored bearer token, or empty when absent.
func (s *TokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return "", err
	}
	return f.Token, nil
}

// Identity returns the cached identity, or nil when absent.
func (s *TokenStore) Identity() (*StoredIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Identity, nil
}

// Set stores the token and the canonical identity in one write.
func (s *TokenStore) Set(token string, identity *StoredIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.Token = token
	f.Identity = identity
	return s.save(f)
}

// SelectedPeriodID returns the user's selected-period preference.
func (s *TokenStore) SelectedPeriodID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return "", err
	}
	return f.SelectedPeriodID, nil
}

// SetSelectedPeriodID stores the selected-period preference.
func (s *TokenStore) SetSelectedPeriodID(periodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.SelectedPeriodID = periodID
	return s.save(f)
}

// Clear removes the token and the cached identity. Preferences that are
// not session state, like the selected period, survive.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.Token = ""
	f.Identity = nil
	return s.save(f)
}

func (s *TokenStore) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &storeFile{}, nil
		}
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		// a corrupt store behaves like an empty one
		return &storeFile{}, nil
	}
	return &f, nil
}

func (s *TokenStore) save(f *storeFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token store dir: %w", err)
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode token store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token store: %w", err)
	}
	return nil
}
