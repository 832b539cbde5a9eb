package forum

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvoronin/forumwire/internal/filex"
)

// BlobStore holds the raw bodies of uploaded files, keyed by thread title and
// file name. Metadata stays in the Store; only bytes live here.
type BlobStore interface {
	Put(ctx context.Context, thread, name string, data []byte) error
	Get(ctx context.Context, thread, name string) ([]byte, error)

	// RemoveThread deletes every blob belonging to a thread.
	RemoveThread(ctx context.Context, thread string) error
}

// LocalBlobStore keeps blobs on the local filesystem under root/thread/name.
type LocalBlobStore struct {
	root string
}

// NewLocalBlobStore creates (if needed) the data directory at root.
func NewLocalBlobStore(root string) (*LocalBlobStore, error) {
	dir, err := filex.EnsureDir(root)
	if err != nil {
		return nil, err
	}
	return &LocalBlobStore{root: dir}, nil
}

func (s *LocalBlobStore) Put(_ context.Context, thread, name string, data []byte) error {
	dir, err := filex.EnsureDir(filepath.Join(s.root, thread))
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o660); err != nil {
		return fmt.Errorf("write blob %s: %w", path, err)
	}
	return nil
}

func (s *LocalBlobStore) Get(_ context.Context, thread, name string) ([]byte, error) {
	path := filepath.Join(s.root, thread, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}
	return data, nil
}

func (s *LocalBlobStore) RemoveThread(_ context.Context, thread string) error {
	return os.RemoveAll(filepath.Join(s.root, thread))
}
