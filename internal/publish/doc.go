// Package publish drives the two publish runs over a snapshot.
//
// The configuration run merges each active module's configuration records
// into <module>.json, writes the module's schema and template maps, the
// taxonomy map and finally the _all.json bootstrap list carrying the site
// grouping. The resources run merges each module's resource records and
// writes a bootstrap list holding only the file URLs.
//
// Every run appends one report row to a Sink, records its events in the run
// history and announces the outcome to the configured Notifier.
package publish
