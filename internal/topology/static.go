package topology

import (
	"context"

	"git.home.luguber.info/inful/siteconfig/internal/config"
)

// Static serves lookups from configuration.
type Static struct {
	cmWebsiteURL string
	search       []config.SearchQueryURL
}

// NewStatic creates a static lookup.
func NewStatic(cfg config.TopologyConfig) *Static {
	return &Static{
		cmWebsiteURL: cfg.CMWebsiteURL,
		search:       append([]config.SearchQueryURL(nil), cfg.SearchQueryURLs...),
	}
}

// EnvironmentURL returns the configured CM website URL.
func (s *Static) EnvironmentURL(context.Context) (string, error) {
	return s.cmWebsiteURL, nil
}

// SearchQueryURL prefers an entry for the publication and falls back to one
// without a publication.
func (s *Static) SearchQueryURL(_ context.Context, publication, purpose string) (string, error) {
	fallback := ""
	for _, q := range s.search {
		if q.Purpose != purpose {
			continue
		}
		if q.Publication == publication {
			return q.URL, nil
		}
		if q.Publication == "" && fallback == "" {
			fallback = q.URL
		}
	}
	return fallback, nil
}
