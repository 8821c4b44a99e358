package publish

import (
	"encoding/json"
	"log/slog"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"git.home.luguber.info/inful/siteconfig/internal/logfields"
)

// keyedID is one key -> id entry of a schema, template or taxonomy map.
type keyedID struct {
	key   string
	id    string
	title string
}

// idMap builds an insertion-ordered key -> id map. The first entry for a key
// wins; later ones are logged and suppressed. Numeric ids encode as numbers.
func idMap(logger *slog.Logger, kind string, entries []keyedID) *orderedmap.OrderedMap[string, any] {
	out := orderedmap.New[string, any]()
	owner := make(map[string]string, len(entries))
	for _, e := range entries {
		if first, dup := owner[e.key]; dup {
			logger.Warn(kind+" "+e.title+" has same key as "+first+"; suppressing from output",
				logfields.Key(e.key),
				slog.String("id", e.id))
			continue
		}
		owner[e.key] = e.title
		out.Set(e.key, idValue(e.id))
	}
	return out
}

func idValue(id string) any {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}
