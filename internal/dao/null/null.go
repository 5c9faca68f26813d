// Package null provides the "null" site: DAOs that need no metadata store.
// NullDao yields one empty record; StaticDao yields the template's own
// options, which makes it the usual way to write fixtures and hand-made
// documents.
package null

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/vvka-141/metafmt/internal/dao"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// SiteName is the name the site registers under.
const SiteName = "null"

const (
	instancesPrefix  = "instances."
	referencesPrefix = "references."
	keyID            = "id"
)

// NewSite returns the null site.
func NewSite() *dao.Site {
	return dao.NewSite(SiteName, map[string]metafmt.DAOFactory{
		"NullDao":   func(metafmt.Params) (metafmt.DAO, error) { return NullDao{}, nil },
		"StaticDao": NewStaticDao,
	})
}

// NullDao always expands to one instance with empty metadata.
type NullDao struct{}

func (NullDao) Expand(context.Context, metafmt.Constraint, metafmt.Params) ([]metafmt.Params, error) {
	return []metafmt.Params{{}}, nil
}

func (NullDao) Bind(metafmt.Params) metafmt.Instance { return emptyInstance{} }

type emptyInstance struct{}

func (emptyInstance) Metadata(context.Context, metafmt.Constraint) (metafmt.Metadata, error) {
	return metafmt.Metadata{}, nil
}

func (emptyInstance) ID() string { return "" }

func (emptyInstance) Context() metafmt.Params { return metafmt.Params{} }

// StaticDao serves metadata written in the template. Scalar options become
// attributes of every instance. Options under "instances.N." describe one
// instance each, overriding the shared attributes; without them there is a
// single instance. "references.<Type>" lists, comma separated, the names a
// blank-name link to <Type> resolves to.
type StaticDao struct {
	shared    map[string]string
	instances []map[string]string
}

// NewStaticDao builds a StaticDao from the options written in the template.
// The DAO environment (database settings, env files, selectors) is not
// metadata and never reaches an instance.
func NewStaticDao(opts metafmt.Params) (metafmt.DAO, error) {
	d := &StaticDao{shared: map[string]string{}}
	indexed := map[int]map[string]string{}
	opts = opts.Own()
	for _, k := range opts.Keys() {
		v := opts.Value(k)
		rest, ok := strings.CutPrefix(k, instancesPrefix)
		if !ok {
			d.shared[k] = v
			continue
		}
		idx, attr, ok := strings.Cut(rest, ".")
		n, err := strconv.Atoi(idx)
		if !ok || err != nil {
			return nil, metafmt.NewTemplateError("", "StaticDao option %s must look like instances.N.attribute", k)
		}
		if indexed[n] == nil {
			indexed[n] = map[string]string{}
		}
		indexed[n][attr] = v
	}

	order := make([]int, 0, len(indexed))
	for n := range indexed {
		order = append(order, n)
	}
	sort.Ints(order)
	for _, n := range order {
		d.instances = append(d.instances, indexed[n])
	}
	return d, nil
}

func (d *StaticDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	if len(d.instances) == 0 {
		return []metafmt.Params{metafmt.NewParams(d.shared).Merge(base)}, nil
	}
	records := make([]metafmt.Params, len(d.instances))
	for i, own := range d.instances {
		records[i] = metafmt.NewParams(d.shared).Merge(base).Merge(metafmt.NewParams(own))
	}
	return records, nil
}

func (d *StaticDao) Bind(p metafmt.Params) metafmt.Instance {
	return &staticInstance{values: p}
}

type staticInstance struct {
	values metafmt.Params
}

func (s *staticInstance) Metadata(context.Context, metafmt.Constraint) (metafmt.Metadata, error) {
	md := metafmt.Metadata{}
	for _, k := range s.values.Keys() {
		if strings.HasPrefix(k, referencesPrefix) {
			continue
		}
		md[k] = s.values.Value(k)
	}
	return md, nil
}

func (s *staticInstance) ID() string { return s.values.Value(keyID) }

func (s *staticInstance) Context() metafmt.Params { return s.values }

// NamesForReference returns the names listed under references.<targetType>.
func (s *staticInstance) NamesForReference(_ context.Context, targetType string) ([]string, error) {
	list := s.values.Value(referencesPrefix + targetType)
	if list == "" {
		return nil, nil
	}
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
