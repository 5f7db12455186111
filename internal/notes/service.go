// Package notes stores free-text notes per project as plain files.
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Service reads and writes one note file per project id under a base
// directory.
type Service struct {
	dir string
}

// NewService creates the notes service rooted at dir.
func NewService(dir string) *Service {
	if strings.TrimSpace(dir) == "" {
		dir = "project_notes"
	}
	return &Service{dir: filepath.Clean(dir)}
}

// Save writes the note for a project, creating the directory on first use.
func (s *Service) Save(projectID, text string) error {
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("project id is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}
	path := s.notePath(projectID)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write note for %s: %w", projectID, err)
	}
	return nil
}

// Load returns the note for a project, or "" when none has been saved.
func (s *Service) Load(projectID string) (string, error) {
	if strings.TrimSpace(projectID) == "" {
		return "", fmt.Errorf("project id is required")
	}
	data, err := os.ReadFile(s.notePath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read note for %s: %w", projectID, err)
	}
	return string(data), nil
}

// notePath maps a project id to a safe filename. Project ids contain path
// separators in some source files.
func (s *Service) notePath(projectID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(projectID)
	return filepath.Join(s.dir, safe+".txt")
}
