// internal/session/store.go
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"print-service/internal/model"
)

// Session records a successful printer connection so a later process can
// silently reconnect without renegotiating. Params hold the negotiated
// connection parameters as used by the protocol factory.
type Session struct {
	ConnectionType model.ConnectionType   `json:"connection_type"`
	Params         map[string]interface{} `json:"params"`
	ConnectedAt    time.Time              `json:"connected_at"`
}

// Store persists the session marker as a JSON file. Presence of the file
// is the persistent-session marker; it never expires on its own.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given file path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Exists reports whether a session marker is present
func (s *Store) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the cached session
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}

	return &sess, nil
}

// Save writes the session marker atomically (temp file + rename)
func (s *Store) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return os.Rename(tmp, s.path)
}

// Clear removes the session marker. Clearing a missing marker is not an
// error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
