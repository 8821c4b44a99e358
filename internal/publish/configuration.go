package publish

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/siteconfig/internal/hierarchy"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/merge"
	"git.home.luguber.info/inful/siteconfig/internal/metrics"
	"git.home.luguber.info/inful/siteconfig/internal/records"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
)

const (
	fieldFurtherConfiguration = "furtherConfiguration"

	coreModule    = "core"
	bootstrapName = "_all.json"
)

// configBootstrap is the _all.json of the configuration run.
type configBootstrap struct {
	Files               []string                       `json:"files"`
	DefaultLocalization bool                           `json:"defaultLocalization"`
	Staging             bool                           `json:"staging"`
	MediaRoot           string                         `json:"mediaRoot"`
	SiteLocalizations   []hierarchy.PublicationDetails `json:"siteLocalizations"`
}

// resourcesBootstrap is the _all.json of the resources run.
type resourcesBootstrap struct {
	Files []string `json:"files"`
}

// mergeOptions derives the merge context from the configuration.
func (p *Publisher) mergeOptions() merge.Options {
	return merge.Options{
		Publication:        p.cfg.Publication.ID,
		OverrideCMSURL:     p.cfg.Publishing.TopologyOverrideEnabled(),
		EnvironmentPurpose: p.cfg.Publishing.EnvironmentPurpose,
		XPMEnabled:         p.cfg.Publishing.XPMEnabled,
	}
}

// PublishConfiguration publishes every active module's configuration, schema
// and template maps, the taxonomy map and the bootstrap list, then appends
// the run's report row to sink.
//
// A module with an unreadable source is skipped and the run goes on. Any
// other error aborts the run; no report row is appended then.
func (p *Publisher) PublishConfiguration(ctx context.Context, snap *snapshot.Snapshot, sink Sink) (Outcome, error) {
	start := time.Now()
	rs := p.begin(ctx, RunConfiguration, GroupConfig, snap)
	if err := p.publishConfiguration(ctx, rs); err != nil {
		return Outcome{}, p.fail(ctx, rs, start, err)
	}
	return p.finish(ctx, rs, start, sink)
}

func (p *Publisher) publishConfiguration(ctx context.Context, rs *runState) error {
	pub := p.cfg.Publication.ID
	modules, err := ActiveModules(rs.snap, p.cfg.Publication.CoreConfig, pub)
	if err != nil {
		return err
	}

	opts := p.mergeOptions()
	var localization *records.Record
	for _, mod := range modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, skipped, err := p.mergeModule(ctx, rs, mod, fieldFurtherConfiguration, opts)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		if res.Localization != nil {
			localization = res.Localization
		}
		if err := p.putJSON(ctx, rs, mod.Name, mod.Name+".json", res.Data); err != nil {
			return err
		}
		if err := p.publishSchemas(ctx, rs, mod); err != nil {
			return err
		}
		if err := p.publishTemplates(ctx, rs, mod); err != nil {
			return err
		}
		p.recorder.IncModuleResult(rs.name, metrics.ResultPublished)
	}

	if err := p.publishTaxonomies(ctx, rs); err != nil {
		return err
	}
	return p.publishConfigBootstrap(ctx, rs, localization)
}

func (p *Publisher) publishSchemas(ctx context.Context, rs *runState, mod Module) error {
	var entries []keyedID
	for _, s := range rs.snap.Store.SchemasUnder(mod.Folder) {
		if s.Purpose != records.SchemaPurposeComponent {
			continue
		}
		entries = append(entries, keyedID{key: s.EffectiveKey(), id: s.ID, title: s.Title})
	}
	if len(entries) == 0 {
		return nil
	}
	return p.putJSON(ctx, rs, mod.Name, mod.Name+".schemas.json", idMap(rs.logger, "Schema", entries))
}

func (p *Publisher) publishTemplates(ctx context.Context, rs *runState, mod Module) error {
	var entries []keyedID
	for _, t := range rs.snap.Store.TemplatesUnder(mod.Folder) {
		if !t.Publishable {
			continue
		}
		entries = append(entries, keyedID{key: t.EffectiveKey(), id: t.ID, title: t.Title})
	}
	if len(entries) == 0 {
		return nil
	}
	return p.putJSON(ctx, rs, mod.Name, mod.Name+".templates.json", idMap(rs.logger, "Template", entries))
}

func (p *Publisher) publishTaxonomies(ctx context.Context, rs *runState) error {
	taxonomies := rs.snap.Store.Taxonomies()
	entries := make([]keyedID, 0, len(taxonomies))
	for _, t := range taxonomies {
		entries = append(entries, keyedID{key: t.EffectiveKey(), id: t.ID, title: t.Title})
	}
	return p.putJSON(ctx, rs, coreModule, coreModule+".taxonomies.json", idMap(rs.logger, "Taxonomy", entries))
}

// publishConfigBootstrap resolves the site grouping of the context
// publication and publishes the bootstrap list.
func (p *Publisher) publishConfigBootstrap(ctx context.Context, rs *runState, localization *records.Record) error {
	pub := p.cfg.Publication.ID
	localizationID := ""
	if localization == nil {
		rs.logger.Warn("Could not find 'Localization Configuration' record, cannot publish language data")
	} else {
		localizationID = localization.ID
	}

	resolver := hierarchy.NewResolver(rs.snap.Tree, records.LocalizationLookup{Store: rs.snap.Store},
		hierarchy.WithLogger(rs.logger),
		hierarchy.WithRecorder(p.recorder))
	grouping, err := resolver.ResolveGrouping(pub, localizationID)
	if err != nil {
		return err
	}
	node, _ := rs.snap.Tree.Node(pub)
	rs.logger.Debug("Resolved site localizations",
		logfields.Publication(pub),
		slog.Int("peers", len(grouping.Peers)),
		slog.String("master", grouping.Master.ID))

	peers := grouping.Peers
	if peers == nil {
		peers = []hierarchy.PublicationDetails{}
	}
	return p.putJSON(ctx, rs, coreModule, bootstrapName, configBootstrap{
		Files:               append([]string{}, rs.files...),
		DefaultLocalization: grouping.IsMaster(pub),
		Staging:             p.cfg.Publishing.Staging,
		MediaRoot:           node.MultimediaURL,
		SiteLocalizations:   peers,
	})
}
