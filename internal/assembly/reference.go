package assembly

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/metafmt/internal/idregistry"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// errOmitted marks an optional link whose target was never registered.
var errOmitted = errors.New("optional reference not registered")

const paramName = "name"

// linkSource is the DAO behind a link node: it answers from the ID registry
// instead of the metadata store.
type linkSource struct {
	link      *Link
	registry  idregistry.Registry
	container metafmt.Instance
}

// Expand yields one record per referenced name. A blank link name takes the
// names from the enclosing instance.
func (s *linkSource) Expand(ctx context.Context, _ metafmt.Constraint, _ metafmt.Params) ([]metafmt.Params, error) {
	if s.link.Name != "" {
		return []metafmt.Params{metafmt.NewParams(map[string]string{paramName: s.link.Name})}, nil
	}
	namer, ok := s.container.(metafmt.ReferenceNamer)
	if !ok {
		return nil, metafmt.NewMetadataError("enclosing element cannot name its %s references", s.link.Type)
	}
	names, err := namer.NamesForReference(ctx, s.link.Type)
	if err != nil {
		return nil, err
	}
	records := make([]metafmt.Params, len(names))
	for i, name := range names {
		records[i] = metafmt.NewParams(map[string]string{paramName: name})
	}
	return records, nil
}

func (s *linkSource) Bind(p metafmt.Params) metafmt.Instance {
	return &reference{link: s.link, registry: s.registry, name: p.Value(paramName)}
}

type reference struct {
	link     *Link
	registry idregistry.Registry
	name     string
}

func (r *reference) Metadata(context.Context, metafmt.Constraint) (metafmt.Metadata, error) {
	key := idregistry.Key(r.link.Type, r.name)
	id, ok := r.registry.Lookup(r.link.Type, r.name)
	if !ok {
		if r.link.Optional {
			return nil, fmt.Errorf("%s: %w", key, errOmitted)
		}
		return nil, fmt.Errorf("no id registered for %s: %w", key, metafmt.ErrUnresolvedReference)
	}
	return metafmt.Metadata{"id": id, "type": r.link.Type, "name": r.name}, nil
}

func (r *reference) ID() string { return "" }

func (r *reference) Context() metafmt.Params { return metafmt.Params{} }
