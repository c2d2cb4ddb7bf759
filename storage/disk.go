// Package storage holds the local implementation of the external blob
// store collaborator. The delivery subsystem only writes blobs on upload
// and keeps the returned reference; it never reads them back.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskBlobStore saves attachment blobs under a root directory, addressed
// by content hash so duplicate uploads collapse to one file.
type DiskBlobStore struct {
	root string
}

func NewDiskBlobStore(root string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob root: %w", err)
	}
	return &DiskBlobStore{root: root}, nil
}

// Save streams r to disk and returns the content-addressed path.
func (s *DiskBlobStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, "upload-*")
	if err != nil {
		return "", fmt.Errorf("temp blob: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}

	name := hex.EncodeToString(hash.Sum(nil)) + filepath.Ext(filename)
	final := filepath.Join(s.root, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("place blob: %w", err)
	}
	return final, nil
}
