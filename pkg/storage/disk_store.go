package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidPath is returned for names that escape the store root.
var ErrInvalidPath = errors.New("storage: invalid path")

// DiskStore keeps rendered reports on the local filesystem under a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory when missing.
func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		root = "./reports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Put writes data under name, creating parent directories as needed.
func (s *DiskStore) Put(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Open returns a reader over a stored file and its size in bytes.
func (s *DiskStore) Open(name string) (io.ReadCloser, int64, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, 0, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open report: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("stat report: %w", err)
	}
	return file, info.Size(), nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *DiskStore) Remove(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove report: %w", err)
	}
	return nil
}

// Sweep deletes files last modified before cutoff and returns their relative names.
func (s *DiskStore) Sweep(cutoff time.Time) ([]string, error) {
	removed := make([]string, 0)
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		removed = append(removed, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep reports: %w", err)
	}
	return removed, nil
}

func (s *DiskStore) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, clean), nil
}
