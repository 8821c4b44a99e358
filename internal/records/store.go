package records

import (
	"fmt"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

type coord struct {
	id          string
	publication string
}

// Store indexes the records of a snapshot.
type Store struct {
	records    map[coord]Record
	schemas    []Schema
	templates  []Template
	taxonomies []Taxonomy
}

// NewStore indexes records. The same (id, publication) may appear only once.
func NewStore(recs []Record, schemas []Schema, templates []Template, taxonomies []Taxonomy) (*Store, error) {
	s := &Store{
		records:    make(map[coord]Record, len(recs)),
		schemas:    schemas,
		templates:  templates,
		taxonomies: taxonomies,
	}
	for _, r := range recs {
		if r.ID == "" {
			return nil, errors.ValidationError("record without id").WithContext("title", r.Title).Build()
		}
		c := coord{id: r.ID, publication: r.Publication}
		if _, dup := s.records[c]; dup {
			return nil, errors.ValidationError(fmt.Sprintf("duplicate record %q in publication %q", r.ID, r.Publication)).
				WithContext("record", r.ID).
				Build()
		}
		s.records[c] = r
	}
	return s, nil
}

// At returns the record id as seen from publication, falling back to the
// unowned record.
func (s *Store) At(id, publication string) (Record, bool) {
	if r, ok := s.records[coord{id, publication}]; ok {
		return r, true
	}
	r, ok := s.records[coord{id: id}]
	return r, ok
}

// Links resolves a link field of rec in publication. Unknown ids are a
// NotFound error.
func (s *Store) Links(rec Record, field, publication string) ([]Record, error) {
	ids, err := rec.LinkIDs(field)
	if err != nil {
		return nil, errors.InvalidSource(rec.ID, err)
	}
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		linked, ok := s.At(id, publication)
		if !ok {
			return nil, errors.NotFoundError(fmt.Sprintf("record %q links unknown record %q", rec.ID, id)).
				WithContext("record", rec.ID).
				WithContext("field", field).
				Build()
		}
		out = append(out, linked)
	}
	return out, nil
}

// SchemasUnder returns the schemas anywhere below folder, in snapshot order.
func (s *Store) SchemasUnder(folder []string) []Schema {
	var out []Schema
	for _, sc := range s.schemas {
		if Under(sc.Folder, folder) {
			out = append(out, sc)
		}
	}
	return out
}

// TemplatesUnder returns the templates anywhere below folder, in snapshot order.
func (s *Store) TemplatesUnder(folder []string) []Template {
	var out []Template
	for _, t := range s.templates {
		if Under(t.Folder, folder) {
			out = append(out, t)
		}
	}
	return out
}

// Taxonomies returns all taxonomies in snapshot order.
func (s *Store) Taxonomies() []Taxonomy {
	return append([]Taxonomy(nil), s.taxonomies...)
}

// LocalizationLookup finds localization settings per publication.
type LocalizationLookup struct {
	Store *Store
}

// GetLocalizationSettings returns the settings of record id as seen from publication.
// A missing record yields no settings.
func (l LocalizationLookup) GetLocalizationSettings(id, publication string) ([]Pair, error) {
	rec, ok := l.Store.At(id, publication)
	if !ok {
		return nil, nil
	}
	return LocalizationSettings(rec)
}
