package commands

import (
	"context"
	"encoding/json"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/hierarchy"
	"git.home.luguber.info/inful/siteconfig/internal/records"
	"git.home.luguber.info/inful/siteconfig/internal/snapshot"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Publication  string `arg:"" optional:"" help:"Publication id (defaults to publication.id)"`
	Localization string `short:"l" help:"Localization configuration record id used for peer languages"`
}

// resolveOutput is printed by the resolve command.
type resolveOutput struct {
	Publication       string                         `json:"publication"`
	Master            string                         `json:"master"`
	SiteLocalizations []hierarchy.PublicationDetails `json:"siteLocalizations"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	return RunResolve(context.Background(), g, cfg, r.Publication, r.Localization)
}

// RunResolve prints the site grouping of publication as JSON.
func RunResolve(ctx context.Context, g *Global, cfg *config.Config, publication, localization string) error {
	if publication == "" {
		publication = cfg.Publication.ID
	}
	snap, err := snapshot.Load(ctx, cfg.Snapshot)
	if err != nil {
		return err
	}
	resolver := hierarchy.NewResolver(snap.Tree, records.LocalizationLookup{Store: snap.Store}, hierarchy.WithLogger(g.Logger))
	res, err := resolver.ResolveGrouping(publication, localization)
	if err != nil {
		return err
	}
	out := resolveOutput{Publication: publication, Master: res.Master.ID, SiteLocalizations: res.Peers}
	if out.SiteLocalizations == nil {
		out.SiteLocalizations = []hierarchy.PublicationDetails{}
	}
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
