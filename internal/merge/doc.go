// Package merge folds the configuration records linked to a module into one
// flat key/value document.
//
// Sources are merged in caller order with last-write-wins semantics. The
// source kind, derived once from the record title, adds override rules:
// environment sources get cmsurl from the topology service, search sources
// get the search query URL, and localization sources are handed back to the
// caller for the language lookup.
package merge
