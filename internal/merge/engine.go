package merge

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/metrics"
	"git.home.luguber.info/inful/siteconfig/internal/records"
	"git.home.luguber.info/inful/siteconfig/internal/topology"
)

// Keys written by override rules.
const (
	KeyCMSURL             = "cmsurl"
	KeySearchQueryURL     = "queryURL"
	KeyStagingIndexConfig = "stagingIndexConfig"
	KeyLiveIndexConfig    = "liveIndexConfig"
)

// Options carries the publishing context of one merge.
type Options struct {
	// Publication is the context publication used for search URL lookups.
	Publication string
	// OverrideCMSURL enables the cmsurl override for environment sources.
	OverrideCMSURL bool
	// EnvironmentPurpose is the CD environment purpose; empty disables the search override.
	EnvironmentPurpose string
	// XPMEnabled selects stagingIndexConfig over liveIndexConfig.
	XPMEnabled bool
}

// Result is the outcome of one module merge.
type Result struct {
	Data *ConfigData
	// Localization is the last localization source seen, nil when none.
	Localization *records.Record
}

// Engine merges module configuration sources.
type Engine struct {
	topology topology.Lookup
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewEngine creates an engine. lookup may be nil when no override can apply.
func NewEngine(lookup topology.Lookup, logger *slog.Logger, recorder metrics.Recorder) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{topology: lookup, logger: logger, recorder: metrics.OrNoop(recorder)}
}

// MergeModuleConfig merges sources in order. It returns either a complete
// map or an error; an unreadable source yields an InvalidSource error.
func (e *Engine) MergeModuleConfig(ctx context.Context, sources []Source, opts Options) (Result, error) {
	data := NewConfigData()
	var res Result
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		pairs, err := records.ReadKeyValuePairs(src.Record)
		if err != nil {
			return Result{}, err
		}
		data.merge(pairs)

		switch src.Kind {
		case KindLocalization:
			rec := src.Record
			res.Localization = &rec
		case KindEnvironment:
			if opts.OverrideCMSURL {
				if err := e.overrideCMSURL(ctx, data); err != nil {
					return Result{}, err
				}
			}
		case KindSearch:
			if opts.EnvironmentPurpose != "" {
				if err := e.applySearchURL(ctx, data, opts); err != nil {
					return Result{}, err
				}
			}
		case KindGeneric:
		}
	}
	res.Data = data
	return res, nil
}

func (e *Engine) overrideCMSURL(ctx context.Context, data *ConfigData) error {
	if e.topology == nil {
		return errors.TopologyError("cmsurl override enabled without a topology lookup").Build()
	}
	url, err := e.topology.EnvironmentURL(ctx)
	if err != nil {
		return err
	}
	if url == "" {
		e.recorder.IncLookupMiss("environment")
		e.logger.LogAttrs(ctx, slog.LevelWarn, "No CM Website URL defined in topology", errors.LookupMiss("environment").LogAttrs()...)
	}
	if old, ok := data.Get(KeyCMSURL); ok && old != "" {
		e.logger.Warn("Overriding '"+KeyCMSURL+"' specified in '"+TitleEnvironment+"' with CM Website URL obtained from topology",
			slog.String("configured", old), logfields.URL(url))
	} else {
		e.logger.Info("Setting '"+KeyCMSURL+"' to CM Website URL obtained from topology", logfields.URL(url))
	}
	data.Set(KeyCMSURL, url)
	return nil
}

func (e *Engine) applySearchURL(ctx context.Context, data *ConfigData, opts Options) error {
	if e.topology == nil {
		return errors.TopologyError("search override enabled without a topology lookup").Build()
	}
	url, err := e.topology.SearchQueryURL(ctx, opts.Publication, opts.EnvironmentPurpose)
	if err != nil {
		return err
	}
	if url == "" {
		e.recorder.IncLookupMiss("search")
		attrs := append(errors.LookupMiss("search").LogAttrs(),
			logfields.Publication(opts.Publication), slog.String("purpose", opts.EnvironmentPurpose))
		e.logger.LogAttrs(ctx, slog.LevelWarn, "No Search Query URL defined in topology for publication and CD environment purpose", attrs...)
		return nil
	}
	indexKey := KeyLiveIndexConfig
	if opts.XPMEnabled {
		indexKey = KeyStagingIndexConfig
	}
	e.logger.Info("Setting '"+KeySearchQueryURL+"' and '"+indexKey+"' to Search Query URL obtained from topology", logfields.URL(url))
	data.Set(indexKey, url)
	data.Set(KeySearchQueryURL, url)
	return nil
}
