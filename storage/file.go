package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"promptsmith/config"
)

// FileStore keeps one JSON file per key under a directory, usually
// <data>/store.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	quota *quota
}

// NewFileStore creates dir if needed and accounts existing files against the
// quota.
func NewFileStore(dir string, quotaBytes int64) (*FileStore, error) {
	// Documents hold API keys, so the directory is user-only.
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{dir: dir, quota: newQuota(quotaBytes)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	for _, entry := range entries {
		key, ok := keyFromFilename(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		s.quota.set(key, int64(len(key))+info.Size())
	}

	return s, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+".json")
}

func keyFromFilename(name string) (string, bool) {
	if !strings.HasSuffix(name, ".json") {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(name, ".json"))
	if err != nil {
		return "", false
	}
	return key, true
}

func (s *FileStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read store file: %w", err)
	}
	return string(data), true, nil
}

func (s *FileStore) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(key) + len(value))
	if !s.quota.allows(key, size) {
		config.Logf("[Storage] Quota exceeded writing %s (%d bytes)", key, size)
		return ErrQuotaExceeded
	}

	// Write to a sibling file and rename so readers never see a torn document.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	s.quota.set(key, size)
	return nil
}

func (s *FileStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete store file: %w", err)
	}
	s.quota.remove(key)
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read store directory: %w", err)
	}
	for _, entry := range entries {
		if _, ok := keyFromFilename(entry.Name()); !ok || entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to delete store file: %w", err)
		}
	}
	s.quota.reset()
	return nil
}
