// Package template parses document templates into an ordered tree.
//
// A template is a nested document keyed by element type name. Templates are
// authored as JSON (comments and trailing commas allowed) or YAML. Parsing
// is syntax only: the tree builder in internal/assembly gives the keys
// their meaning.
//
// Key order is preserved in every mapping so that diagnostics and the
// "exactly one element key" rule do not depend on map iteration order.
package template
