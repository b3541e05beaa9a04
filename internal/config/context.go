package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Session is the TUI selection restored on the next launch.
type Session struct {
	// View is the last active navigation key.
	View string `yaml:"view,omitempty"`
	// PersonID is the selected person in the faces view.
	PersonID string `yaml:"person,omitempty"`
	// PersonLabel is the human-readable label (for display).
	PersonLabel string `yaml:"person_label,omitempty"`
	// UpdatedAt is when the session was last modified.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if nothing is selected.
func (s *Session) IsEmpty() bool {
	return s.View == "" && s.PersonID == ""
}

// SetView records the active view.
func (s *Session) SetView(view string) {
	s.View = view
	s.UpdatedAt = time.Now()
}

// SetPerson records the selected person.
func (s *Session) SetPerson(id, label string) {
	s.PersonID = id
	s.PersonLabel = label
	s.UpdatedAt = time.Now()
}

// Clear removes all selection.
func (s *Session) Clear() {
	s.View = ""
	s.PersonID = ""
	s.PersonLabel = ""
	s.UpdatedAt = time.Now()
}

// String returns a human-readable representation of the session.
func (s *Session) String() string {
	if s.IsEmpty() {
		return "(no session)"
	}
	out := fmt.Sprintf("view:%s", s.View)
	if s.PersonID != "" {
		name := s.PersonLabel
		if name == "" {
			name = shortID(s.PersonID)
		}
		out += fmt.Sprintf(" person:%s", name)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SessionStore manages loading and saving the session file.
type SessionStore struct {
	path string
	mu   sync.RWMutex
}

// NewSessionStore creates a new session store.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Path returns the session file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Load reads the session from disk.
// Returns an empty session if the file doesn't exist.
func (s *SessionStore) Load() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := &Session{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return session, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return session, nil
}

// Save writes the session to disk.
func (s *SessionStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Clear removes the session file.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
