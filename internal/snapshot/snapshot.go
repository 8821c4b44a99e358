// Package snapshot loads the content snapshot a publish run works on: the
// publication tree, content records, schemas, templates and taxonomies.
package snapshot

import (
	"bytes"
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/records"
	"git.home.luguber.info/inful/siteconfig/internal/sitetree"
)

// Document is the on-disk snapshot format (YAML or JSON).
type Document struct {
	Publications []sitetree.Node    `yaml:"publications"`
	Records      []records.Record   `yaml:"records"`
	Schemas      []records.Schema   `yaml:"schemas,omitempty"`
	Templates    []records.Template `yaml:"templates,omitempty"`
	Taxonomies   []records.Taxonomy `yaml:"taxonomies,omitempty"`
}

// Snapshot is a loaded, indexed snapshot.
type Snapshot struct {
	Tree   *sitetree.Tree
	Store  *records.Store
	Source string
}

// Parse decodes and indexes a snapshot document.
func Parse(data []byte, source string) (*Snapshot, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid snapshot").
			WithContext("source", source).
			Build()
	}
	tree, err := sitetree.New(doc.Publications)
	if err != nil {
		return nil, err
	}
	store, err := records.NewStore(doc.Records, doc.Schemas, doc.Templates, doc.Taxonomies)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Tree: tree, Store: store, Source: source}, nil
}

// LoadFile reads a snapshot from the local filesystem.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("snapshot file not found").WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read snapshot").WithContext("path", path).Build()
	}
	return Parse(data, path)
}

// Load reads the snapshot configured in cfg.
func Load(ctx context.Context, cfg config.SnapshotConfig) (*Snapshot, error) {
	if cfg.Git != nil {
		return LoadGit(ctx, *cfg.Git)
	}
	return LoadFile(cfg.Path)
}
