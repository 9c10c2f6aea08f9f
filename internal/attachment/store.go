// Package attachment provides scoped temporary storage for uploaded binary
// payloads. Each stored file is owned by exactly one orchestration unit,
// which must remove it in its cleanup phase.
package attachment

import (
	"fmt"
	"os"
	"path/filepath"

	"harp/pkg/schema"
)

// Store writes uploads into a spool directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating it if absent.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists an uploaded payload and returns its path. The stored name is
// the sanitized original filename behind a unique prefix, so concurrent
// uploads of the same file never collide.
func (s *Store) Save(originalFilename string, content []byte) (string, error) {
	id, err := schema.NewAttachmentID()
	if err != nil {
		return "", fmt.Errorf("attachment id: %w", err)
	}

	clean := schema.SanitizeName(originalFilename)
	if clean == "" {
		clean = "upload"
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s", id, clean))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}

// Remove deletes a stored attachment. Removing an already-removed file is
// not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}
