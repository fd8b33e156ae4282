package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/layer-3/recipebook/core"
	"gopkg.in/yaml.v3"
)

// FileCredentialStore keeps client credentials in a YAML file readable only
// by the owner. It is what lets a CLI session survive between invocations.
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

type credentialsFile struct {
	Access  string `yaml:"access,omitempty"`
	Refresh string `yaml:"refresh,omitempty"`
}

// NewFileCredentialStore creates a store backed by path
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Path returns the backing file path
func (s *FileCredentialStore) Path() string {
	return s.path
}

func (s *FileCredentialStore) Load(ctx context.Context) (core.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Credentials{}, nil
	}
	if err != nil {
		return core.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}

	return core.Credentials{Access: f.Access, Refresh: f.Refresh}, nil
}

func (s *FileCredentialStore) Save(ctx context.Context, creds core.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(credentialsFile{Access: creds.Access, Refresh: creds.Refresh})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}

	// Write then rename so a crash never leaves a truncated file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credentials: %w", err)
	}

	return nil
}

func (s *FileCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	return nil
}
