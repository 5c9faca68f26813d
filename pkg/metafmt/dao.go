package metafmt

import (
	"context"
	"sort"
)

// Metadata is the attribute mapping a data source returns for one element.
// Keys use the document schema's attribute names (e.g. "short_name").
type Metadata map[string]interface{}

// Constraint scopes a metadata query. ID is typically the identifier of the
// nearest ancestor that owns one.
type Constraint struct {
	ID string
}

// Params is an immutable per-instance parameter record. A DAO expands one
// template position into a list of Params, and each is bound into exactly
// one Instance.
type Params struct {
	values map[string]string

	// own is set by Over and lists the keys of the top layer.
	own map[string]bool
}

// NewParams copies kv into a new Params.
func NewParams(kv map[string]string) Params {
	values := make(map[string]string, len(kv))
	for k, v := range kv {
		values[k] = v
	}
	return Params{values: values}
}

// Get returns the value for key and whether it was set.
func (p Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Value returns the value for key or "" when unset.
func (p Params) Value(key string) string {
	return p.values[key]
}

// With returns a copy of p with key set to value.
func (p Params) With(key, value string) Params {
	values := make(map[string]string, len(p.values)+1)
	for k, v := range p.values {
		values[k] = v
	}
	values[key] = value
	return Params{values: values}
}

// Merge returns a copy of p overlaid with other. Keys in other win.
func (p Params) Merge(other Params) Params {
	values := make(map[string]string, len(p.values)+len(other.values))
	for k, v := range p.values {
		values[k] = v
	}
	for k, v := range other.values {
		values[k] = v
	}
	return Params{values: values}
}

// Over returns p laid over defaults. Lookups see both layers; Own sees only
// the keys of p.
func (p Params) Over(defaults Params) Params {
	layered := defaults.Merge(p)
	layered.own = make(map[string]bool, len(p.values))
	for k := range p.values {
		layered.own[k] = true
	}
	return layered
}

// Own returns the keys set directly rather than inherited from the
// defaults given to Over. Params not built by Over are all own keys.
func (p Params) Own() Params {
	if p.own == nil {
		return p
	}
	values := make(map[string]string, len(p.own))
	for k := range p.own {
		values[k] = p.values[k]
	}
	return Params{values: values}
}

// Keys returns the set keys in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of set keys.
func (p Params) Len() int { return len(p.values) }

// DAO is a metadata source bound to one template node.
//
// The walker drives it in this order for every parent instance:
//
//	base := ContainerMetadata(parent)   // optional, see ContainerAware
//	for _, p := range Expand(ctx, constraint, base) {
//	    inst := Bind(p)
//	    md := inst.Metadata(ctx, constraint)
//	}
//
// Expand may return zero records; that is not an error.
type DAO interface {
	Expand(ctx context.Context, c Constraint, base Params) ([]Params, error)
	Bind(p Params) Instance
}

// Instance is one concrete metadata record source produced by fan-out.
type Instance interface {
	// Metadata fetches the attributes for this instance.
	Metadata(ctx context.Context, c Constraint) (Metadata, error)

	// ID returns the instance's opaque key. Valid after Metadata returns.
	// An empty ID means children inherit the parent constraint.
	ID() string

	// Context exposes the state children need to scope their own queries
	// (database keys, nesting level). Valid after Metadata returns.
	Context() Params
}

// ContainerAware is implemented by DAOs that derive their query scope from
// the enclosing instance. The returned Params become the base for Expand.
type ContainerAware interface {
	ContainerMetadata(container Instance) (Params, error)
}

// ReferenceNamer is implemented by instances that can enumerate the names of
// elements of targetType they refer to. It serves blank-name links.
type ReferenceNamer interface {
	NamesForReference(ctx context.Context, targetType string) ([]string, error)
}

// DAOFactory instantiates a DAO from the node's DAO options laid over the
// environment defaults (see Params.Over). opts.Own() holds just the options
// written in the template.
type DAOFactory func(opts Params) (DAO, error)

// Site is a named, closed set of DAO factories.
type Site interface {
	Name() string
	Lookup(daoType string) (DAOFactory, bool)
}
