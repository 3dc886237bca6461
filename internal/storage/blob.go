// Package storage implements the blob store for uploaded binaries: a flat
// directory keyed by generated filenames.
package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// BlobStore writes and removes upload files under a single directory.
type BlobStore struct {
	dir string
}

// NewBlobStore ensures dir exists and returns a store rooted there.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

// Dir returns the root directory, used to mount the static file route.
func (s *BlobStore) Dir() string { return s.dir }

// Save writes data under name. Names are generated server-side, but the
// path is still flattened to its base so a crafted name cannot escape the
// directory.
func (s *BlobStore) Save(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.dir, filepath.Base(name)), data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	return nil
}

// Delete removes the blob for name. Deletion is best-effort: a failure is
// logged so orphaned blobs stay detectable, but never surfaced to the
// caller.
func (s *BlobStore) Delete(name string) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("blob: failed to delete %s: %v", path, err)
	}
}
