// Package storage publishes binary files into structure groups and assigns
// their URLs.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// Target stores published files.
type Target interface {
	// Put stores data as name in the structure group and returns the
	// published object. Writing identical content again is a no-op.
	Put(ctx context.Context, group, name string, data []byte) (Object, error)

	// Get returns the content of a published file.
	// Returns ErrNotFound if the file doesn't exist.
	Get(ctx context.Context, group, name string) ([]byte, error)

	// Close releases any resources held by the target.
	Close() error
}

// Object describes a published file.
type Object struct {
	// URL is the public URL the file is served under.
	URL string
	// Hash is the SHA256 of the content.
	Hash string
	Size int64
	// Changed is false when identical content was already published.
	Changed bool
}

// ErrNotFound is returned when a file doesn't exist.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "object not found: " + e.Key
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// New creates the target selected by the output configuration.
func New(ctx context.Context, cfg config.OutputConfig) (Target, error) {
	switch cfg.Backend {
	case config.BackendS3:
		if cfg.S3 == nil {
			return nil, errors.ConfigError("output.s3 is required for the s3 backend").Build()
		}
		return NewS3Target(ctx, *cfg.S3, cfg.BaseURL)
	case config.BackendFS, "":
		return NewFSTarget(cfg.Directory, cfg.BaseURL)
	default:
		return nil, errors.ConfigError("unknown output backend: " + string(cfg.Backend)).Build()
	}
}

// URLFor joins the base URL, group and name.
func URLFor(baseURL, group, name string) string {
	return strings.TrimRight(baseURL, "/") + "/" + path.Join(group, name)
}

func hashOf(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func validateKey(group, name string) error {
	for _, part := range []string{group, name} {
		if part == "" || strings.Contains(part, "..") || strings.ContainsAny(part, `/\`) {
			return errors.ValidationError("invalid structure group or file name").
				WithContext("group", group).
				WithContext("name", name).
				Build()
		}
	}
	return nil
}
