// Package sitetree holds the read-only publication tree a publish run works on.
//
// Nodes form a multi-parent graph: a node lists the ids of its parents, and a
// node "uses" every parent it lists. The tree answers parent lookups in
// declaration order and enumerates the transitive users of a node breadth
// first, ties broken by snapshot order, so every traversal built on top of it
// is deterministic.
package sitetree
