package aggregate

import (
	"encoding/json"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// Slot holds the current aggregated output. The zero value is empty.
type Slot struct {
	content string
}

// NewSlot returns a slot holding existing content, e.g. output read back
// from a previous step.
func NewSlot(content string) *Slot {
	return &Slot{content: content}
}

// Content returns the current JSON text, "" when empty.
func (s *Slot) Content() string { return s.content }

// Empty reports whether no row was appended yet.
func (s *Slot) Empty() bool { return strings.TrimSpace(s.content) == "" }

// AppendResult appends fragment to the slot and returns the new content.
// fragment is marshaled to JSON unless it already is raw JSON; it must encode
// to a JSON object.
func AppendResult(slot *Slot, fragment any) (string, error) {
	frag, err := encodeObject(fragment)
	if err != nil {
		return slot.content, err
	}
	slot.content = Append(slot.content, frag)
	return slot.content, nil
}

// Append applies the textual append rule to current and a serialized object.
func Append(current, fragment string) string {
	trimmed := strings.TrimSpace(current)
	switch {
	case trimmed == "":
		return fragment
	case strings.HasPrefix(trimmed, "["):
		return strings.TrimSuffix(trimmed, "]") + "," + fragment + "]"
	default:
		return "[" + trimmed + "," + fragment + "]"
	}
}

func encodeObject(fragment any) (string, error) {
	var raw []byte
	switch v := fragment.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryInternal, "encode report row").Build()
		}
		raw = b
	}
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return "", errors.ValidationError(fmt.Sprintf("report row is not a JSON object: %.40q", s)).Build()
	}
	return s, nil
}

// Add appends one row, so a Slot can stand in wherever a Collector is used.
// Unlike Collector it is not safe for concurrent use.
func (s *Slot) Add(fragment any) error {
	_, err := AppendResult(s, fragment)
	return err
}
