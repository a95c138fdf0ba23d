package snapshotstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemStore keeps snapshot documents as files under a root directory.
// Writes are atomic: temp file in the same directory, then rename.
type FileSystemStore struct {
	root string
}

var _ Store = (*FileSystemStore)(nil)

// NewFileSystemStore creates a store rooted at the given directory,
// creating it if needed. Snapshots hold plaintext secrets, so the directory
// is owner-only.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

func (s *FileSystemStore) Put(name string, r io.Reader) error {
	destPath := filepath.Join(s.root, name)

	tmpFile, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("setting snapshot permissions: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	success = true
	return nil
}

func (s *FileSystemStore) Get(name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading snapshot %s: %w", name, err)
	}
	return nil
}
