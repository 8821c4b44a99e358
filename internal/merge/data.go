package merge

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"git.home.luguber.info/inful/siteconfig/internal/records"
)

// ConfigData is an insertion-ordered string map. Overwriting a key keeps its
// original position.
type ConfigData struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewConfigData returns an empty map.
func NewConfigData() *ConfigData {
	return &ConfigData{m: orderedmap.New[string, string]()}
}

// Set stores value under key.
func (d *ConfigData) Set(key, value string) {
	d.m.Set(key, value)
}

// Get returns the value stored under key.
func (d *ConfigData) Get(key string) (string, bool) {
	return d.m.Get(key)
}

// Len returns the number of keys.
func (d *ConfigData) Len() int {
	return d.m.Len()
}

// Pairs returns the entries in insertion order.
func (d *ConfigData) Pairs() []records.Pair {
	out := make([]records.Pair, 0, d.m.Len())
	for p := d.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, records.Pair{Key: p.Key, Value: p.Value})
	}
	return out
}

// Keys returns the keys in insertion order.
func (d *ConfigData) Keys() []string {
	out := make([]string, 0, d.m.Len())
	for p := d.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (d *ConfigData) MarshalJSON() ([]byte, error) {
	return d.m.MarshalJSON()
}

func (d *ConfigData) merge(pairs []records.Pair) {
	for _, p := range pairs {
		d.m.Set(p.Key, p.Value)
	}
}
