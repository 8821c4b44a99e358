package sitetree

// Well-known metadata keys and values.
const (
	MetaSiteID = "siteId"

	// SiteIDMultisiteMaster marks a node that may act as master for any grouping below it.
	SiteIDMultisiteMaster = "multisite-master"
)

// Node is a publication in the tree.
type Node struct {
	ID            string            `yaml:"id" json:"id"`
	Title         string            `yaml:"title" json:"title"`
	Path          string            `yaml:"path" json:"path"`
	Parents       []string          `yaml:"parents,omitempty" json:"parents,omitempty"`
	Metadata      map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	MasterWeb     bool              `yaml:"masterWeb,omitempty" json:"masterWeb,omitempty"`
	MultimediaURL string            `yaml:"multimediaUrl,omitempty" json:"multimediaUrl,omitempty"`

	// SiteIDField is the shorthand `siteId:` form; it is folded into Metadata by New.
	SiteIDField string `yaml:"siteId,omitempty" json:"siteId,omitempty"`
}

// Meta returns a metadata value, or "" when absent.
func (n Node) Meta(key string) string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata[key]
}

// SiteID returns the node's site grouping id; "" means ungrouped.
func (n Node) SiteID() string {
	return n.Meta(MetaSiteID)
}
