package hierarchy

import (
	"git.home.luguber.info/inful/siteconfig/internal/records"
	"git.home.luguber.info/inful/siteconfig/internal/sitetree"
)

// Tree is the read-only view the resolver walks. *sitetree.Tree implements it.
type Tree interface {
	Node(id string) (sitetree.Node, bool)
	Parents(id string) []sitetree.Node
	Using(id string) []sitetree.Node
	IsMasterCandidate(id string) bool
}

// LocalizationLookup returns the localization settings of a record as seen
// from a publication. records.LocalizationLookup implements it.
type LocalizationLookup interface {
	GetLocalizationSettings(recordID, publication string) ([]records.Pair, error)
}

// PublicationDetails is one grouping peer as published in siteLocalizations.
type PublicationDetails struct {
	ID       string  `json:"id"`
	Path     string  `json:"path"`
	Language *string `json:"language"`
	IsMaster bool    `json:"isMaster"`
}

// Result is the outcome of ResolveGrouping.
type Result struct {
	Master sitetree.Node
	Peers  []PublicationDetails
}

// IsMaster reports whether the peer with the given id is flagged master.
func (r Result) IsMaster(id string) bool {
	for _, p := range r.Peers {
		if p.ID == id {
			return p.IsMaster
		}
	}
	return false
}

// MasterPeer returns the flagged master peer.
func (r Result) MasterPeer() (PublicationDetails, bool) {
	for _, p := range r.Peers {
		if p.IsMaster {
			return p, true
		}
	}
	return PublicationDetails{}, false
}
