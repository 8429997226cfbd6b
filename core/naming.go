package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	apperrors "github.com/x-cod3r/Image-Converter-Resizer/errors"
)

// OutputResolver picks a non-colliding output location for a source file.
// The exists-then-write sequence is not atomic; it assumes one writer per
// output directory.
type OutputResolver struct {
	store StorageAdapter
}

// NewOutputResolver returns a resolver that checks collisions against store.
func NewOutputResolver(store StorageAdapter) *OutputResolver {
	return &OutputResolver{store: store}
}

// Resolve returns the key for <stem>.<ext> in outputDir (or beside source when
// outputDir is empty), appending _1, _2, ... until the key is free.  The base
// directory is created when the store has real directories.
func (r *OutputResolver) Resolve(ctx context.Context, source string, format Format, outputDir string) (StorageKey, error) {
	dir := outputDir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(source)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return StorageKey{}, apperrors.Wrap(apperrors.CategoryIO, "resolve.abs", err)
	}
	dir = abs

	if p, ok := r.store.(DirPreparer); ok {
		if err := p.EnsureDir(ctx, dir); err != nil {
			return StorageKey{}, err
		}
	}

	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name, err := NextFreeName(stem, format.Extension(), func(name string) (bool, error) {
		return r.store.Exists(ctx, StorageKey{Dir: dir, Name: name})
	})
	if err != nil {
		return StorageKey{}, err
	}
	return StorageKey{Dir: dir, Name: name}, nil
}

// NextFreeName returns stem.ext, or the first stem_N.ext (N = 1, 2, ...) for
// which exists reports false.
func NextFreeName(stem, ext string, exists func(name string) (bool, error)) (string, error) {
	name := stem + "." + ext
	for n := 1; ; n++ {
		taken, err := exists(name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d.%s", stem, n, ext)
	}
}
