package crem

import (
	"context"
	"strconv"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Keys of the state an instance exposes to its children through Context.
const (
	stateID         = "id"
	stateTable      = "table"
	stateTableID    = "table_id"
	stateModelID    = "model_id"
	stateCompID     = "comp_id"
	stateLevel      = "level"
	stateExptID     = "expt_id"
	stateExptName   = "expt_name"
	stateConfID     = "conf_id"
	stateReqtID     = "reqt_id"
	stateGridSystem = "grid_system_id"
	stateMosaicID   = "mosaic_id"
)

// fetcher is what a DAO adds to an instance: the metadata for one record,
// and the state its children see.
type fetcher interface {
	fetch(ctx context.Context, c metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error)
}

// namer is implemented by fetchers whose instances serve blank-name links.
type namer interface {
	names(ctx context.Context, state metafmt.Params, targetType string) ([]string, error)
}

type instance struct {
	f      fetcher
	params metafmt.Params
	state  metafmt.Params
}

// bind wraps p in an instance of f.
func bind(f fetcher, p metafmt.Params) metafmt.Instance {
	inst := &instance{f: f, params: p, state: p}
	if n, ok := f.(namer); ok {
		return &namingInstance{instance: inst, n: n}
	}
	return inst
}

func (i *instance) Metadata(ctx context.Context, c metafmt.Constraint) (metafmt.Metadata, error) {
	md, state, err := i.f.fetch(ctx, c, i.params)
	if err != nil {
		return nil, err
	}
	i.state = i.params.Merge(state)
	return md, nil
}

func (i *instance) ID() string { return i.state.Value(stateID) }

func (i *instance) Context() metafmt.Params { return i.state }

type namingInstance struct {
	*instance
	n namer
}

func (i *namingInstance) NamesForReference(ctx context.Context, targetType string) ([]string, error) {
	return i.n.names(ctx, i.state, targetType)
}

// single is the Expand of DAOs that always yield one record.
func single(base metafmt.Params) []metafmt.Params {
	return []metafmt.Params{base}
}

// fanOut turns one column of rows into one record per row, each carrying
// the value under key on top of base.
func fanOut(base metafmt.Params, key string, values []string) []metafmt.Params {
	records := make([]metafmt.Params, len(values))
	for i, v := range values {
		records[i] = base.With(key, v)
	}
	return records
}

// dbTable locates the CREM row an element was built from, for child
// queries that join back to it.
type dbTable struct {
	nodeType string
	id       string
}

const (
	tableModel      = "model"
	tableComponent  = "component"
	tableSimulation = "simulation"
)

var dbTables = map[string]struct{ idColumn, table, citeType string }{
	tableModel:      {"idtblmodel", "tblmodel", "MODEL"},
	tableComponent:  {"idtModelComponent", "tblmodelcomponent", "COMPONENT"},
	tableSimulation: {"idexperiment", "tblexperiment", "SIMULATION"},
}

func (t dbTable) state() metafmt.Params {
	return metafmt.NewParams(map[string]string{stateTable: t.nodeType, stateTableID: t.id})
}

// tableFrom reads the dbTable an enclosing instance exposed.
func tableFrom(st metafmt.Params, what string) (dbTable, error) {
	t := dbTable{nodeType: st.Value(stateTable), id: st.Value(stateTableID)}
	if _, ok := dbTables[t.nodeType]; !ok {
		return dbTable{}, metafmt.NewMetadataError("missing internal db metadata required to find %s records", what)
	}
	return t, nil
}

func (t dbTable) idColumn() string { return dbTables[t.nodeType].idColumn }
func (t dbTable) table() string    { return dbTables[t.nodeType].table }
func (t dbTable) citeType() string { return dbTables[t.nodeType].citeType }

// nextLevel is the component nesting level below the container's.
func nextLevel(container metafmt.Params) string {
	level, err := strconv.Atoi(container.Value(stateLevel))
	if err != nil {
		return "1"
	}
	return strconv.Itoa(level + 1)
}

// carry copies the named state keys from container into a fresh Params.
func carry(container metafmt.Instance, keys ...string) metafmt.Params {
	st := container.Context()
	out := metafmt.Params{}
	for _, k := range keys {
		if v, ok := st.Get(k); ok {
			out = out.With(k, v)
		}
	}
	return out
}

// needID checks that the walker passed an enclosing identifier.
func needID(c metafmt.Constraint) error {
	if c.ID == "" {
		return metafmt.NewMetadataError("I need a constraint on id")
	}
	return nil
}
