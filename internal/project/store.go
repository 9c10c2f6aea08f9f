// Package project manages the project directories. The filesystem is the
// source of truth: the listing is re-derived from disk after every mutation
// rather than maintained in memory.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"harp/pkg/schema"
)

// Store is a directory of project subdirectories.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating it if absent.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create projects directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// List re-derives the project set from the subdirectories on disk.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	projects := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// Add creates a project directory (idempotent) and returns the refreshed
// listing. Names that sanitize to nothing are rejected.
func (s *Store) Add(name string) ([]string, error) {
	clean := schema.SanitizeName(name)
	if clean == "" {
		return nil, &schema.InvalidNameError{Name: name}
	}

	if err := os.MkdirAll(filepath.Join(s.dir, clean), 0755); err != nil {
		return nil, fmt.Errorf("create project %q: %w", clean, err)
	}
	return s.List()
}

// Delete removes a project directory recursively if it is currently known.
// Unknown names are a no-op, not an error.
func (s *Store) Delete(name string) ([]string, error) {
	known, err := s.List()
	if err != nil {
		return nil, err
	}

	for _, p := range known {
		if p == name {
			if err := os.RemoveAll(filepath.Join(s.dir, name)); err != nil {
				return nil, fmt.Errorf("delete project %q: %w", name, err)
			}
			break
		}
	}
	return s.List()
}
