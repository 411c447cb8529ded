// Package session persists suspended runs. A suspension record round-trips
// through JSON on disk, so a run interrupted for a human verdict can resume
// in a different process.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/entrhq/webpilot/pkg/agent/graph"
)

// Store keeps suspension records as JSON files in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir; an empty dir selects
// ~/.webpilot/sessions.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".webpilot", "sessions")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists the record and returns its session id. An empty id gets a
// fresh one.
func (s *Store) Save(id string, record *graph.SuspensionRecord) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path(id), data, 0600); err != nil {
		return "", fmt.Errorf("failed to write session %s: %w", id, err)
	}
	return id, nil
}

// Load reads a suspension record by session id.
func (s *Store) Load(id string) (*graph.SuspensionRecord, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	var record graph.SuspensionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &record, nil
}

// Delete removes a persisted session.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// List returns the ids of all persisted sessions.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
