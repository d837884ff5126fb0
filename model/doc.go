// Package model contains the declarative description the engine runs: a Graph
// of job definitions, resource definitions and process level escalations.
//
// The graph is produced by an external loader (compiler, DSL, hand-written Go)
// and handed to the engine fully resolved; the definitions themselves live in
// the graph sub-package.
package model
