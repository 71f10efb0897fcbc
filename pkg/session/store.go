package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	scraperrors "github.com/nithin434/seriousbro/pkg/errors"
	"github.com/nithin434/seriousbro/pkg/logger"
)

// Store reads and writes session records at a fixed path.
type Store struct {
	path string
	log  logger.Logger
}

// NewStore creates a store for the given session file path.
func NewStore(path string, log logger.Logger) *Store {
	return &Store{path: path, log: log}
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes the record through a temporary file so a crash mid-write
// never corrupts an existing session.
func (s *Store) Save(record *Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return scraperrors.Wrap(scraperrors.KindSessionIO, "store.Save", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return scraperrors.Wrap(scraperrors.KindSessionIO, "store.Save", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return scraperrors.Wrap(scraperrors.KindSessionIO, "store.Save", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return scraperrors.Wrap(scraperrors.KindSessionIO, "store.Save", err)
	}

	s.log.WithFields(map[string]interface{}{
		"path":    s.path,
		"cookies": len(record.Cookies),
	}).Debug("Session saved")

	return nil
}

// Load reads the session record. A missing or unreadable file is not an
// error: the pipeline falls back to a fresh login, so Load returns
// (nil, nil) and logs a warning for corrupt files.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.log.WithError(err).Warn("Session file unreadable, starting fresh")
		return nil, nil
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.log.WithError(err).Warn("Session file corrupt, starting fresh")
		return nil, nil
	}

	return &record, nil
}

// Delete removes the session file. Useful for forcing a fresh login.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
