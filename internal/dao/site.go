// Package dao holds the metadata sources a template's "dao" keys resolve
// to. Each subpackage provides one site: a closed set of DAO types built
// over one kind of metadata store.
package dao

import (
	"sort"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Site is a named table of DAO factories.
type Site struct {
	name      string
	factories map[string]metafmt.DAOFactory
}

// NewSite returns a site serving factories under name.
func NewSite(name string, factories map[string]metafmt.DAOFactory) *Site {
	return &Site{name: name, factories: factories}
}

func (s *Site) Name() string { return s.name }

func (s *Site) Lookup(daoType string) (metafmt.DAOFactory, bool) {
	f, ok := s.factories[daoType]
	return f, ok
}

// Types lists the DAO types the site serves, sorted.
func (s *Site) Types() []string {
	types := make([]string, 0, len(s.factories))
	for t := range s.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
