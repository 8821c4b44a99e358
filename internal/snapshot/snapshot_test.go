package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

const sample = `
publications:
  - {id: "1", title: Root, path: /, siteId: multisite-master}
  - {id: "5", title: English, path: /en, siteId: s1, masterWeb: true, parents: ["1"], multimediaUrl: /media}
  - {id: "6", title: German, path: /de, metadata: {siteId: s1}, parents: ["5"]}
records:
  - id: "100"
    title: Core Configuration
    folder: [Building Blocks, Modules, Core, Admin]
    fields:
      modules: ["101"]
  - id: "101"
    title: Core Module
    folder: [Building Blocks, Modules, Core, Admin]
    fields: {name: core, isActive: "Yes"}
schemas:
  - {id: "200", title: Article, purpose: component, folder: [Building Blocks, Modules, Core, Schemas]}
templates:
  - {id: "300", title: Article, key: article, publishable: true, folder: [Building Blocks, Modules, Core]}
taxonomies:
  - {id: "400", title: Topics}
`

func TestParse(t *testing.T) {
	snap, err := Parse([]byte(sample), "inline")
	require.NoError(t, err)
	require.Equal(t, 3, snap.Tree.Len())
	require.Equal(t, "s1", snap.Tree.Metadata("6", "siteId"))

	rec, ok := snap.Store.At("101", "5")
	require.True(t, ok)
	require.Equal(t, "core", rec.Text("name"))
	require.Len(t, snap.Store.SchemasUnder([]string{"Building Blocks", "Modules", "Core"}), 1)
	require.Len(t, snap.Store.Taxonomies(), 1)
}

func TestParseJSON(t *testing.T) {
	snap, err := Parse([]byte(`{"publications":[{"id":"1","title":"Only","path":"/"}],"records":[]}`), "json")
	require.NoError(t, err)
	require.Equal(t, 1, snap.Tree.Len())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("publications: []\nrecords: []\nextra: 1\n"), "x")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestParseRejectsBrokenTree(t *testing.T) {
	_, err := Parse([]byte("publications:\n  - {id: \"1\", parents: [\"9\"]}\n"), "x")
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	snap, err := Load(context.Background(), config.SnapshotConfig{Path: path})
	require.NoError(t, err)
	require.Equal(t, path, snap.Source)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestLoadGit(t *testing.T) {
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(repoPath, "content"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "content", "site.yaml"), []byte(sample), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("content/site.yaml")
	require.NoError(t, err)
	_, err = wt.Commit("snapshot", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)

	snap, err := Load(context.Background(), config.SnapshotConfig{Git: &config.GitSnapshotConfig{URL: repoPath, File: "content/site.yaml"}})
	require.NoError(t, err)
	require.Equal(t, 3, snap.Tree.Len())

	_, err = LoadGit(context.Background(), config.GitSnapshotConfig{URL: repoPath})
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}
