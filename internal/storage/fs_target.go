package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// FSTarget writes files below a directory:
//
//	<dir>/
//	  config/
//	    core.json
//	    _all.json
//	  resources/
//	    core.json
type FSTarget struct {
	basePath string
	baseURL  string
	mu       sync.Mutex
}

// NewFSTarget creates the output directory if needed.
func NewFSTarget(basePath, baseURL string) (*FSTarget, error) {
	if basePath == "" {
		return nil, errors.ConfigError("output directory is required").Build()
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", basePath).
			Build()
	}
	return &FSTarget{basePath: basePath, baseURL: baseURL}, nil
}

// Put writes the file atomically (temp file + rename).
func (fs *FSTarget) Put(ctx context.Context, group, name string, data []byte) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := validateKey(group, name); err != nil {
		return Object{}, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	obj := Object{URL: URLFor(fs.baseURL, group, name), Hash: hashOf(data), Size: int64(len(data))}
	target := fs.filePath(group, name)
	if existing, err := os.ReadFile(target); err == nil {
		if hashOf(existing) == obj.Hash {
			return obj, nil
		}
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Object{}, errors.WrapError(err, errors.CategoryFileSystem, "create structure group directory").
			WithContext("path", dir).
			Build()
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return Object{}, errors.WrapError(err, errors.CategoryFileSystem, "create temp file").Build()
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return Object{}, errors.WrapError(err, errors.CategoryFileSystem, "write file").WithContext("path", target).Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, errors.WrapError(err, errors.CategoryFileSystem, "close file").WithContext("path", target).Build()
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, errors.WrapError(err, errors.CategoryFileSystem, "rename file").WithContext("path", target).Build()
	}
	obj.Changed = true
	return obj, nil
}

// Get reads a published file.
func (fs *FSTarget) Get(_ context.Context, group, name string) ([]byte, error) {
	if err := validateKey(group, name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fs.filePath(group, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound{Key: group + "/" + name}
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read file").Build()
	}
	return data, nil
}

// Close is a no-op.
func (fs *FSTarget) Close() error { return nil }

func (fs *FSTarget) filePath(group, name string) string {
	return filepath.Join(fs.basePath, group, name)
}
