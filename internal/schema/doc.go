// Package schema models the target document: typed elements with generated
// identifiers, ordered attribute fields, and named child slots.
//
// The catalogue in definitions.go lists, for every schema type, the
// attributes and slots it accepts. Validate checks a finished tree against
// it and returns every problem found; validation never stops a document
// from being written.
package schema
