// Package storage provides StorageAdapter implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/x-cod3r/Image-Converter-Resizer/core"
	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// Local stores images on the local filesystem.  With an empty root the key
// directory is used as-is; otherwise it is nested under the root.
type Local struct {
	rootDir     string
	permissions os.FileMode
}

// NewLocal creates a Local storage adapter rooted at dir ("" for none).
func NewLocal(dir string, perm os.FileMode) (*Local, error) {
	if perm == 0 {
		perm = 0o644
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("local storage: mkdir %s: %w", dir, err)
		}
	}
	return &Local{rootDir: dir, permissions: perm}, nil
}

func (l *Local) absPath(key core.StorageKey) string {
	return filepath.Join(l.rootDir, filepath.Clean(key.Dir), key.Name)
}

// Locate returns the filesystem path of key.
func (l *Local) Locate(key core.StorageKey) string { return l.absPath(key) }

// EnsureDir creates dir (under the root) if it does not exist.
func (l *Local) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "local.mkdir", err)
	}
	if err := os.MkdirAll(filepath.Join(l.rootDir, dir), 0o755); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "local.mkdir", err)
	}
	return nil
}

// Put creates the file for key and fails with ErrOutputExists rather than
// overwrite.  A partially written file is removed.  meta is not persisted.
func (l *Local) Put(ctx context.Context, key core.StorageKey, r io.Reader, _ map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "local.put", err)
	}

	path := l.absPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "local.put.mkdir", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, l.permissions)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperrors.New(apperrors.CategoryIO, "local.put",
				fmt.Errorf("%w: %s", apperrors.ErrOutputExists, path))
		}
		return apperrors.Wrap(apperrors.CategoryIO, "local.put.open", err)
	}

	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return apperrors.Wrap(apperrors.CategoryIO, "local.put.copy", err)
	}
	if err = f.Close(); err != nil {
		os.Remove(path)
		return apperrors.Wrap(apperrors.CategoryIO, "local.put.close", err)
	}
	return nil
}

func (l *Local) Get(ctx context.Context, key core.StorageKey) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryIO, "local.get", err)
	}
	f, err := os.Open(l.absPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.New(apperrors.CategoryIO, "local.get", fmt.Errorf("key not found: %v", key))
		}
		return nil, apperrors.Wrap(apperrors.CategoryIO, "local.get.open", err)
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, key core.StorageKey) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "local.delete", err)
	}
	if err := os.Remove(l.absPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.Wrap(apperrors.CategoryIO, "local.delete", err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, key core.StorageKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.Wrap(apperrors.CategoryIO, "local.exists", err)
	}
	_, err := os.Stat(l.absPath(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, apperrors.Wrap(apperrors.CategoryIO, "local.exists.stat", err)
}

var (
	_ core.StorageAdapter = (*Local)(nil)
	_ core.DirPreparer    = (*Local)(nil)
)
