package merge

import "git.home.luguber.info/inful/siteconfig/internal/records"

// SourceKind tags a source record with its override behavior.
type SourceKind int

const (
	KindGeneric SourceKind = iota
	KindEnvironment
	KindSearch
	KindLocalization
)

// Record titles that select a source kind.
const (
	TitleEnvironment  = "Environment Configuration"
	TitleSearch       = "Search Configuration"
	TitleLocalization = "Localization Configuration"
)

func (k SourceKind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindSearch:
		return "search"
	case KindLocalization:
		return "localization"
	default:
		return "generic"
	}
}

// KindFromTitle maps a record title to its kind.
func KindFromTitle(title string) SourceKind {
	switch title {
	case TitleEnvironment:
		return KindEnvironment
	case TitleSearch:
		return KindSearch
	case TitleLocalization:
		return KindLocalization
	default:
		return KindGeneric
	}
}

// Source is one record to merge.
type Source struct {
	Record records.Record
	Kind   SourceKind
}

// Classify tags records with their kinds, keeping order.
func Classify(recs []records.Record) []Source {
	out := make([]Source, 0, len(recs))
	for _, r := range recs {
		out = append(out, Source{Record: r, Kind: KindFromTitle(r.Title)})
	}
	return out
}
