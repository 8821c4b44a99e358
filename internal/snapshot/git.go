package snapshot

import (
	"context"
	"log/slog"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
)

// DefaultGitFile is the snapshot path inside a repository when none is configured.
const DefaultGitFile = "snapshot.yaml"

// LoadGit clones the repository into memory and parses the snapshot file.
func LoadGit(ctx context.Context, cfg config.GitSnapshotConfig) (*Snapshot, error) {
	file := cfg.File
	if file == "" {
		file = DefaultGitFile
	}
	opts := &git.CloneOptions{URL: cfg.URL}
	if cfg.Ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Ref)
		opts.SingleBranch = true
	}
	if cfg.Token != "" {
		opts.Auth = &http.BasicAuth{Username: "token", Password: cfg.Token}
	}

	fs := memfs.New()
	repo, err := git.CloneContext(ctx, memory.NewStorage(), fs, opts)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "clone snapshot repository").
			WithContext("url", cfg.URL).
			Retryable().
			Build()
	}
	if head, herr := repo.Head(); herr == nil {
		slog.Debug("Cloned snapshot repository",
			logfields.URL(cfg.URL),
			slog.String("commit", head.Hash().String()),
			logfields.Path(file))
	}

	data, err := util.ReadFile(fs, file)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotFound, "snapshot file not found in repository").
			WithContext("url", cfg.URL).
			WithContext("path", file).
			Build()
	}
	return Parse(data, cfg.URL+"#"+file)
}
