// Package progress keeps per-process execution counters.  A tracker travels
// in the process context so job logic can read a snapshot while the engine
// updates it.
package progress
