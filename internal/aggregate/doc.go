// Package aggregate accumulates report rows from independent publish runs
// into one JSON value.
//
// The first row is stored as a bare object. A second row turns the value
// into an array, and later rows are appended to it. Rows are never merged
// or deduplicated.
//
// Slot is the read-modify-write form and assumes a single writer. Collector
// accepts rows from concurrent runs and serializes them once.
package aggregate
