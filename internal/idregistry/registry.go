// Package idregistry stores the identifiers assigned during one document
// build so later elements can refer to earlier ones.
package idregistry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Registry maps (type, name) to an assigned identifier. Entries are written
// once per key and live for a single build.
type Registry interface {
	Add(typeName, name, id string) error
	Lookup(typeName, name string) (string, bool)
}

// Key joins type and name the way references are written in diagnostics.
func Key(typeName, name string) string {
	return typeName + ":" + name
}

// DocIDs is the in-memory registry declared by a template's id_dao.
// Not safe for concurrent use; a build is single-threaded.
type DocIDs struct {
	ids map[string]string
}

// NewDocIDs returns an empty registry.
func NewDocIDs() *DocIDs {
	return &DocIDs{ids: make(map[string]string)}
}

// Add records id for (typeName, name). A second Add for the same key is a
// metadata inconsistency: two elements claim the same reference name.
func (r *DocIDs) Add(typeName, name, id string) error {
	if typeName == "" || name == "" {
		return metafmt.NewMetadataError("need type and name to register id %s", id)
	}
	key := Key(typeName, name)
	if existing, ok := r.ids[key]; ok {
		return metafmt.NewMetadataError("id %s already registered as %s (new id %s)", key, existing, id)
	}
	r.ids[key] = id
	return nil
}

// Lookup returns the identifier registered for (typeName, name).
func (r *DocIDs) Lookup(typeName, name string) (string, bool) {
	id, ok := r.ids[Key(typeName, name)]
	return id, ok
}

// Len returns the number of registered identifiers.
func (r *DocIDs) Len() int { return len(r.ids) }

// String lists the registered keys, sorted.
func (r *DocIDs) String() string {
	keys := make([]string, 0, len(r.ids))
	for k := range r.ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("DocIDs[%s]", strings.Join(keys, ", "))
}

// Null accepts and discards registrations. It serves templates without
// links and without an id_dao.
type Null struct{}

func (Null) Add(typeName, name, id string) error { return nil }

func (Null) Lookup(typeName, name string) (string, bool) { return "", false }

// Factories is the closed set of registry types a template's id_dao may name.
var Factories = map[string]func() Registry{
	"DocIdDao": func() Registry { return NewDocIDs() },
	"Null":     func() Registry { return Null{} },
}
