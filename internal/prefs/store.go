// Package prefs is durable client-side storage: one value per key, one file per key.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrInvalidKey is returned for keys that cannot be stored.
var ErrInvalidKey = errors.New("invalid preference key")

// Store keeps preferences as files under a base directory.
// Writes go to a temp file and are renamed into place.
type Store struct {
	mu      sync.Mutex
	baseDir string
}

// NewStore creates the store directory if needed.
// If baseDir is empty, uses ~/.contacerta/prefs/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".contacerta", "prefs")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create prefs directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("prefs store initialized")

	return &Store{baseDir: baseDir}, nil
}

// Get returns the value stored under key and whether it exists.
func (s *Store) Get(key string) (string, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path) // #nosec G304 - path is derived from a sanitized key
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read preference: %w", err)
	}

	return string(data), true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write preference: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save preference: %w", err)
	}

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

// keyReplacer escapes keys into file names; "_" is escaped too so distinct keys never share a file.
var keyReplacer = strings.NewReplacer("_", "_5f", ":", "_3a", "/", "_2f", `\`, "_5c")

func (s *Store) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, keyReplacer.Replace(key)), nil
}
