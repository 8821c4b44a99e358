package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	"git.home.luguber.info/inful/siteconfig/internal/metrics"
	"git.home.luguber.info/inful/siteconfig/internal/records"
	"git.home.luguber.info/inful/siteconfig/internal/sitetree"
)

const languageSetting = "language"

// Resolver computes site groupings over a tree.
type Resolver struct {
	tree          Tree
	localizations LocalizationLookup
	logger        *slog.Logger
	recorder      metrics.Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Resolver) { r.recorder = metrics.OrNoop(rec) }
}

// NewResolver creates a resolver. localizations may be nil, in which case
// peers carry no language.
func NewResolver(tree Tree, localizations LocalizationLookup, opts ...Option) *Resolver {
	r := &Resolver{
		tree:          tree,
		localizations: localizations,
		logger:        slog.Default(),
		recorder:      metrics.NoopRecorder{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ResolveGrouping returns the master and the peers of start's site grouping.
//
// localizationID names the localization configuration record whose
// "language" setting is read at each peer; "" skips the language lookup.
func (r *Resolver) ResolveGrouping(start, localizationID string) (Result, error) {
	node, ok := r.tree.Node(start)
	if !ok {
		return Result{}, errors.NotFoundError(fmt.Sprintf("publication %q not found", start)).
			WithContext("publication", start).
			Build()
	}
	groupID := node.SiteID()
	master := r.FindMaster(node)
	r.logger.Debug("Resolved site grouping master",
		logfields.Publication(master.ID),
		slog.String("master_title", master.Title),
		logfields.SiteID(groupID))

	var peers []PublicationDetails
	masterAdded := false
	if master.SiteID() == groupID {
		masterAdded = r.tree.IsMasterCandidate(master.ID)
		peers = append(peers, r.details(master, masterAdded, localizationID))
	}
	if groupID != "" {
		for _, child := range r.tree.Using(master.ID) {
			if child.SiteID() != groupID {
				r.logger.Debug("Ignoring descendant with other site id",
					logfields.Publication(child.ID), logfields.SiteID(child.SiteID()))
				continue
			}
			r.logger.Debug("Found grouping descendant",
				logfields.Publication(child.ID), logfields.SiteID(child.SiteID()))
			isMaster := !masterAdded && r.tree.IsMasterCandidate(child.ID)
			peers = append(peers, r.details(child, isMaster, localizationID))
			masterAdded = masterAdded || isMaster
		}
	}

	if !masterAdded {
		for i := range peers {
			if peers[i].ID == start {
				peers[i].IsMaster = true
			}
		}
	}
	return Result{Master: master, Peers: peers}, nil
}

// FindMaster ascends from node to the master of its site grouping. Each step
// uses the siteId of the node being ascended from. A node whose siteId is
// empty or "multisite-master" is its own master. When several parents
// qualify, the first in parent declaration order wins. Nodes already visited
// are never candidates again.
func (r *Resolver) FindMaster(node sitetree.Node) sitetree.Node {
	visited := map[string]bool{}
	for {
		visited[node.ID] = true
		siteID := node.SiteID()
		if siteID == "" || siteID == sitetree.SiteIDMultisiteMaster {
			return node
		}
		var candidates []sitetree.Node
		for _, p := range r.tree.Parents(node.ID) {
			if visited[p.ID] || !isCandidateMaster(p, siteID) {
				continue
			}
			candidates = append(candidates, p)
		}
		switch len(candidates) {
		case 0:
			return node
		case 1:
		default:
			amb := errors.AmbiguousMaster(node.ID, siteID, candidates[0].ID)
			r.recorder.IncAmbiguousMaster()
			r.logger.LogAttrs(context.Background(), slog.LevelError,
				fmt.Sprintf("Publication %s has more than one parent with the same (or empty) siteId %s. Cannot determine site grouping, so picking the first parent: %s.",
					node.Title, siteID, candidates[0].Title),
				amb.LogAttrs()...)
		}
		node = candidates[0]
	}
}

// isCandidateMaster reports whether p may be the master of a child in siteID.
func isCandidateMaster(p sitetree.Node, siteID string) bool {
	s := p.SiteID()
	return s == sitetree.SiteIDMultisiteMaster || s == siteID
}

func (r *Resolver) details(n sitetree.Node, isMaster bool, localizationID string) PublicationDetails {
	return PublicationDetails{
		ID:       n.ID,
		Path:     n.Path,
		Language: r.language(n.ID, localizationID),
		IsMaster: isMaster,
	}
}

// language reads the "language" setting of the localization record at publication.
func (r *Resolver) language(publication, localizationID string) *string {
	if localizationID == "" || r.localizations == nil {
		return nil
	}
	settings, err := r.localizations.GetLocalizationSettings(localizationID, publication)
	if err != nil {
		r.logger.Warn("Cannot read localization settings",
			logfields.Publication(publication), logfields.Record(localizationID), logfields.Error(err))
		return nil
	}
	for _, s := range settings {
		if s.Key != languageSetting {
			continue
		}
		if _, perr := language.Parse(s.Value); perr != nil {
			r.logger.Warn("Localization language is not a valid BCP 47 tag",
				logfields.Publication(publication), slog.String("language", s.Value))
		}
		v := s.Value
		return &v
	}
	return nil
}

var _ LocalizationLookup = records.LocalizationLookup{}
var _ Tree = (*sitetree.Tree)(nil)
