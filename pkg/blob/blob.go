// Package blob stores uploaded media on a filesystem, one directory per
// namespace. Keys are slash separated "<namespace>/<name>" paths relative to
// the store root.
package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrTooLarge   = errors.New("blob exceeds size limit")
	ErrInvalidKey = errors.New("invalid blob key")
)

// Store is the blob storage collaborator used by the media service.
type Store interface {
	Put(ctx context.Context, namespace, name string, r io.Reader) (key string, size int64, err error)
	Exists(key string) (bool, error)
	Remove(key string) error
	Open(key string) (io.ReadCloser, error)
}

// FSStore keeps blobs under root on an afero filesystem.
type FSStore struct {
	fs       afero.Fs
	root     string
	maxBytes int64
}

// NewFSStore returns a store rooted at root. maxBytes <= 0 disables the size cap.
func NewFSStore(fs afero.Fs, root string, maxBytes int64) *FSStore {
	return &FSStore{fs: fs, root: root, maxBytes: maxBytes}
}

// NewOsStore is the production store on the local disk.
func NewOsStore(root string, maxBytes int64) *FSStore {
	return NewFSStore(afero.NewOsFs(), root, maxBytes)
}

// Namespace derives a directory name from an opaque credential so the raw
// token never reaches the filesystem.
func Namespace(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

func (s *FSStore) Put(ctx context.Context, namespace, name string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	key := path.Join(namespace, name)
	full, err := s.resolve(key)
	if err != nil {
		return "", 0, err
	}
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("create namespace dir: %w", err)
	}

	f, err := s.fs.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = s.fs.Remove(full)
		return "", 0, fmt.Errorf("write blob: %w", copyErr)
	case closeErr != nil:
		_ = s.fs.Remove(full)
		return "", 0, fmt.Errorf("close blob: %w", closeErr)
	case s.maxBytes > 0 && n > s.maxBytes:
		_ = s.fs.Remove(full)
		return "", 0, ErrTooLarge
	}
	return key, n, nil
}

func (s *FSStore) Exists(key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, full)
}

// Remove deletes a blob; a blob that is already gone is not an error.
func (s *FSStore) Remove(key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FSStore) Open(key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return s.fs.Open(full)
}

func (s *FSStore) resolve(key string) (string, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `\`+"\x00") {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.root, parts[0], parts[1]), nil
}
