package publish

import (
	"context"
	"time"

	"git.home.luguber.info/inful/siteconfig/internal/merge"
	"git.home.luguber.info/inful/siteconfig/internal/metrics"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
)

const fieldResource = "resource"

// PublishResources publishes every active module's merged resources and a
// bootstrap list of the published files, then appends the run's report row
// to sink. Error handling matches PublishConfiguration.
func (p *Publisher) PublishResources(ctx context.Context, snap *snapshot.Snapshot, sink Sink) (Outcome, error) {
	start := time.Now()
	rs := p.begin(ctx, RunResources, GroupResources, snap)
	if err := p.publishResources(ctx, rs); err != nil {
		return Outcome{}, p.fail(ctx, rs, start, err)
	}
	return p.finish(ctx, rs, start, sink)
}

func (p *Publisher) publishResources(ctx context.Context, rs *runState) error {
	modules, err := ActiveModules(rs.snap, p.cfg.Publication.CoreConfig, p.cfg.Publication.ID)
	if err != nil {
		return err
	}

	// Resource labels get no topology overrides.
	opts := merge.Options{Publication: p.cfg.Publication.ID}
	for _, mod := range modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, skipped, err := p.mergeModule(ctx, rs, mod, fieldResource, opts)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		if err := p.putJSON(ctx, rs, mod.Name, mod.Name+".json", res.Data); err != nil {
			return err
		}
		p.recorder.IncModuleResult(rs.name, metrics.ResultPublished)
	}
	return p.putJSON(ctx, rs, coreModule, bootstrapName, resourcesBootstrap{Files: append([]string{}, rs.files...)})
}

// PublishAll runs the configuration run then the resources run into the
// same sink. It stops at the first aborted run.
func (p *Publisher) PublishAll(ctx context.Context, snap *snapshot.Snapshot, sink Sink) ([]Outcome, error) {
	cfgOut, err := p.PublishConfiguration(ctx, snap, sink)
	if err != nil {
		return nil, err
	}
	resOut, err := p.PublishResources(ctx, snap, sink)
	if err != nil {
		return []Outcome{cfgOut}, err
	}
	return []Outcome{cfgOut, resOut}, nil
}
