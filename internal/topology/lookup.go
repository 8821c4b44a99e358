// Package topology answers the CM website URL and search query URL lookups
// that override module configuration values.
package topology

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/siteconfig/internal/config"
)

// Lookup resolves URLs from the publishing topology. An empty string with a
// nil error means the topology defines no value.
type Lookup interface {
	EnvironmentURL(ctx context.Context) (string, error)
	SearchQueryURL(ctx context.Context, publication, purpose string) (string, error)
}

// New returns an HTTP client when an endpoint is configured and a static
// lookup otherwise.
func New(cfg config.TopologyConfig, logger *slog.Logger) (Lookup, error) {
	if cfg.Endpoint != "" {
		return NewClient(cfg, logger)
	}
	return NewStatic(cfg), nil
}
