// Package elements is the closed catalogue of template element kinds.
//
// Each Kind knows which metadata attributes it requires, how to turn a
// metadata record into a schema.Element, where the result attaches on its
// parent, and under which (type, name) it registers for later references.
package elements
