package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const blobExt = ".json"

// FileTier serves keys from a directory tree: key "a/b/c" is the file {root}/a/b/c.json
type FileTier struct {
	root string
}

func NewFileTier(root string) *FileTier {
	return &FileTier{root: root}
}

func (f *FileTier) Name() string { return "filesystem" }

func (f *FileTier) Root() string { return f.root }

func (f *FileTier) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := f.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Keys lists every key stored under prefix, sorted. A missing directory yields no keys.
func (f *FileTier) Keys(prefix string) ([]string, error) {
	dir := f.root
	if prefix != "" {
		p, err := f.dir(prefix)
		if err != nil {
			return nil, err
		}
		dir = p
	}

	var keys []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), blobExt) {
			return nil
		}

		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(strings.TrimSuffix(rel, blobExt)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	slices.Sort(keys)
	return keys, nil
}

func (f *FileTier) path(key string) (string, error) {
	p, err := f.dir(key)
	if err != nil {
		return "", err
	}
	return p + blobExt, nil
}

// dir maps a slash separated key onto the tree, refusing anything that escapes root
func (f *FileTier) dir(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(f.root, filepath.FromSlash(key)), nil
}
