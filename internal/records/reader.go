package records

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

var settingsPath = jp.MustParseString("$.settings")

// ReadKeyValuePairs reads a record as ordered key/value pairs.
//
// A record carrying a `settings` list of {name, value} entries yields those
// entries in list order. Otherwise every top-level scalar field is a pair, in
// declaration order. Anything else is an InvalidSource error.
func ReadKeyValuePairs(rec Record) ([]Pair, error) {
	root := &rec.Fields
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	switch root.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
	default:
		return nil, errors.InvalidSource(rec.ID, fmt.Errorf("fields of %q are not a mapping", rec.Title))
	}

	if rec.field("settings") != nil {
		pairs, err := settings(rec)
		if err != nil {
			return nil, errors.InvalidSource(rec.ID, err)
		}
		return pairs, nil
	}

	pairs := make([]Pair, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			continue
		}
		pairs = append(pairs, Pair{Key: k.Value, Value: v.Value})
	}
	return pairs, nil
}

// LocalizationSettings returns the name/value settings of a localization
// record; records without settings yield none.
func LocalizationSettings(rec Record) ([]Pair, error) {
	if rec.field("settings") == nil {
		return nil, nil
	}
	return settings(rec)
}

// settings extracts the embedded settings list.
func settings(rec Record) ([]Pair, error) {
	var data any
	if err := rec.Fields.Decode(&data); err != nil {
		return nil, err
	}
	found := settingsPath.Get(data)
	if len(found) != 1 {
		return nil, fmt.Errorf("settings of %q not found", rec.Title)
	}
	list, ok := found[0].([]any)
	if !ok {
		return nil, fmt.Errorf("settings of %q is not a list", rec.Title)
	}
	pairs := make([]Pair, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("setting %d of %q is not an object", i, rec.Title)
		}
		name, ok := entry["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("setting %d of %q has no name", i, rec.Title)
		}
		pairs = append(pairs, Pair{Key: name, Value: scalarString(entry["value"])})
	}
	return pairs, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
