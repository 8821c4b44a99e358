package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/siteconfig/internal/aggregate"
	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/publish"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
	"git.home.luguber.info/inful/siteconfig/internal/storage"
)

// RunFlags are shared by the publish and resources commands.
type RunFlags struct {
	DryRun bool   `name:"dry-run" help:"Publish into memory and print the report without writing files"`
	Report string `name:"report" help:"Report file the run's row is appended to (created when missing)"`
}

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	RunFlags `embed:""`
	All bool `help:"Also run the resources publish"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	runs := []runFunc{(*publish.Publisher).PublishConfiguration}
	if p.All {
		runs = append(runs, (*publish.Publisher).PublishResources)
	}
	return p.execute(g, root, runs...)
}

// ResourcesCmd implements the 'resources' command.
type ResourcesCmd struct {
	RunFlags `embed:""`
}

func (r *ResourcesCmd) Run(g *Global, root *CLI) error {
	return r.execute(g, root, (*publish.Publisher).PublishResources)
}

type runFunc func(*publish.Publisher, context.Context, *snapshot.Snapshot, publish.Sink) (publish.Outcome, error)

func (f RunFlags) execute(g *Global, root *CLI, runs ...runFunc) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunPublish(ctx, g, cfg, f, runs...)
}

// RunPublish loads the snapshot and executes runs in order, appending each
// report row to the report file (when set) and printing the result.
func RunPublish(ctx context.Context, g *Global, cfg *config.Config, f RunFlags, runs ...runFunc) error {
	snap, err := snapshot.Load(ctx, cfg.Snapshot)
	if err != nil {
		return err
	}

	var rt *publish.Runtime
	if f.DryRun {
		rt, err = publish.OpenTarget(cfg, storage.NewMemoryTarget(cfg.Output.BaseURL), publish.WithTrigger("cli"))
	} else {
		rt, err = publish.Open(ctx, cfg, publish.WithTrigger("cli"))
	}
	if err != nil {
		return err
	}
	defer rt.Close()

	slot, err := readSlot(f.Report)
	if err != nil {
		return err
	}
	runErr := executeRuns(ctx, rt.Publisher, snap, slot, runs)

	// Rows appended by runs that finished stay in the report even when a later run aborts.
	if f.Report != "" && !f.DryRun {
		if err := os.WriteFile(f.Report, []byte(slot.Content()), 0o600); err != nil && runErr == nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write report").WithContext("path", f.Report).Build()
		}
	}
	if runErr != nil {
		return runErr
	}
	_, err = fmt.Fprintln(g.Out, slot.Content())
	return err
}

// executeRuns runs in order and stops at the first run error.
func executeRuns(ctx context.Context, p *publish.Publisher, snap *snapshot.Snapshot, slot *aggregate.Slot, runs []runFunc) error {
	for _, run := range runs {
		out, err := run(p, ctx, snap, slot)
		if err != nil {
			return err
		}
		for _, fail := range out.Failures {
			slog.Warn("Module skipped", logfields.Module(fail.Module), logfields.Error(fail.Err))
		}
	}
	return nil
}

// readSlot returns the slot held in path, empty when path is unset or missing.
func readSlot(path string) (*aggregate.Slot, error) {
	if path == "" {
		return &aggregate.Slot{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &aggregate.Slot{}, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read report").WithContext("path", path).Build()
	}
	return aggregate.NewSlot(string(data)), nil
}
