// Package records gives read access to the content records of a snapshot:
// configuration and resource records, schemas, templates and taxonomies.
//
// Records share ids across publications. A lookup at (id, publication) prefers
// the record owned by that publication and falls back to the unowned record
// with the same id.
package records
