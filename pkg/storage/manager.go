package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Manager persists scrape records under a base directory, one JSON file
// per record.
type Manager struct {
	baseDir string
	mu      sync.Mutex
}

// NewManager creates a storage manager rooted at baseDir.
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the root output directory.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SaveRecord writes v as indented JSON to <base>/<kind>/<subject>_<ts>.json
// and returns the written path. The write goes through a temporary file so
// a crash never leaves a truncated record.
func (m *Manager) SaveRecord(subject, kind string, capturedAt time.Time, v any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Join(m.baseDir, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create record directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", sanitize(subject), capturedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return path, nil
}

// SaveRaw writes an unstructured text dump next to the JSON records.
func (m *Manager) SaveRaw(subject, kind string, capturedAt time.Time, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Join(m.baseDir, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create record directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.txt", sanitize(subject), capturedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return path, nil
}

// sanitize reduces a subject (URL or free text) to a filesystem-safe stem.
func sanitize(subject string) string {
	s := strings.TrimSpace(subject)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if len(out) > 100 {
		out = out[:100]
	}
	if out == "" {
		out = "record"
	}
	return out
}
