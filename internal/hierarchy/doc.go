// Package hierarchy resolves the site grouping of a publication.
//
// A grouping is the set of publications sharing a siteId. ResolveGrouping
// ascends from a start publication to the grouping master, collects every
// grouping peer below it, and flags exactly one peer as master.
package hierarchy
