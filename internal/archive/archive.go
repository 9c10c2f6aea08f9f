// Package archive persists wisdom logs: named category files that chat
// messages are appended to, plus timestamped full-session archives. Files
// are shared across sessions with no locking; interleaving at write
// granularity is accepted.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"harp/pkg/schema"
)

// ErrNotFound reports a category that does not exist on disk.
var ErrNotFound = errors.New("category not found")

const (
	headerTimeFormat = "2006-01-02 15:04:05"
	fileTimeFormat   = "20060102_150405"
)

// Archive is a directory of markdown wisdom logs.
type Archive struct {
	dir string
}

// New creates an Archive rooted at dir, creating it if absent.
func New(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// ListCategories returns the category names currently on disk, sorted.
func (a *Archive) ListCategories() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("read archive directory: %w", err)
	}

	categories := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		categories = append(categories, strings.TrimSuffix(entry.Name(), ".md"))
	}
	sort.Strings(categories)
	return categories, nil
}

// ReadCategory returns the raw text of a category log.
func (a *Archive) ReadCategory(name string) (string, error) {
	path, err := a.categoryPath(name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read category: %w", err)
	}
	return string(data), nil
}

// AppendEntry appends one timestamped, delimited block to a category log,
// creating the file on first write.
func (a *Archive) AppendEntry(name string, msg schema.ChatMessage, ts time.Time) error {
	path, err := a.categoryPath(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open category: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatBlock(msg, ts)); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// DeleteCategory removes a category log. Missing categories are ErrNotFound.
func (a *Archive) DeleteCategory(name string) error {
	path, err := a.categoryPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ArchiveSession writes the entire history into a new timestamped file, one
// block per message, and returns the file's category name.
func (a *Archive) ArchiveSession(history []schema.ChatMessage, ts time.Time) (string, error) {
	name := fmt.Sprintf("wisdom_log_%s", ts.Format(fileTimeFormat))

	var b strings.Builder
	for _, msg := range history {
		b.WriteString(formatBlock(msg, ts))
	}

	path := filepath.Join(a.dir, name+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write session archive: %w", err)
	}
	return name, nil
}

// categoryPath sanitizes a category name into its file path.
func (a *Archive) categoryPath(name string) (string, error) {
	clean := schema.SanitizeName(name)
	if clean == "" {
		return "", &schema.InvalidNameError{Name: name}
	}
	return filepath.Join(a.dir, clean+".md"), nil
}

func formatBlock(msg schema.ChatMessage, ts time.Time) string {
	return fmt.Sprintf("## Archived on %s\n**%s:**\n%s\n\n---\n\n",
		ts.Format(headerTimeFormat), msg.Sender, msg.Text)
}
