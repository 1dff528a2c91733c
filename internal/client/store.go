package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// SessionMarker is the durable trace of a logged-in user. It identifies who
// was signed in so a restart can attempt a silent refresh, and it must never
// contain a token or any other credential.
type SessionMarker struct {
	UserID  string    `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	SavedAt time.Time `json:"saved_at"`
}

// SessionStore persists the session marker between runs.
type SessionStore interface {
	Load() (*SessionMarker, error)
	Save(marker SessionMarker) error
	Clear() error
}

// FileSessionStore keeps the session marker in a single JSON file.
type FileSessionStore struct {
	path string
}

// NewFileSessionStore builds a store writing to the given path.
func NewFileSessionStore(path string) (*FileSessionStore, error) {
	if path == "" {
		return nil, errors.New("session store path is required")
	}
	return &FileSessionStore{path: path}, nil
}

// Load reads the marker. A missing file is not an error and yields nil.
func (s *FileSessionStore) Load() (*SessionMarker, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session marker: %w", err)
	}

	var marker SessionMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("decode session marker: %w", err)
	}
	return &marker, nil
}

// Save writes the marker, creating parent directories as needed.
func (s *FileSessionStore) Save(marker SessionMarker) error {
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session marker: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session marker directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session marker: %w", err)
	}
	return nil
}

// Clear removes the marker file. Removing an already absent file succeeds.
func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session marker: %w", err)
	}
	return nil
}
