package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"trends-go/pkg/logger"
)

// FileStorage keeps one indented JSON file per key in a directory.
// Writes go to a temp file in the same directory and are renamed into place.
type FileStorage struct {
	dir string
	log *logger.Logger
}

// NewFileStorage creates dir if needed
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStorage{
		dir: dir,
		log: logger.GetLogger().WithField("component", "file_storage"),
	}, nil
}

// Dir returns the storage directory
func (s *FileStorage) Dir() string {
	return s.dir
}

// Path returns the file path for key
func (s *FileStorage) Path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

// Save marshals data and atomically replaces the file for key
func (s *FileStorage) Save(ctx context.Context, key string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := WriteFileAtomic(s.Path(key), payload, 0644); err != nil {
		return err
	}
	s.log.WithFields(map[string]interface{}{
		"key":   key,
		"bytes": len(payload),
	}).Debug("Saved file")
	return nil
}

// Load reads and unmarshals the file for key
func (s *FileStorage) Load(ctx context.Context, key string, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key; a missing file is not an error
func (s *FileStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether the file for key is present
func (s *FileStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// List returns sorted keys starting with prefix
func (s *FileStorage) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// ModTime returns the modification time of the file for key
func (s *FileStorage) ModTime(key string) (time.Time, error) {
	info, err := os.Stat(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// WriteFileAtomic writes data to a temp file next to path, syncs it and renames it over path
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
