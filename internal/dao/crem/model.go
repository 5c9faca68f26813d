package crem

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/metafmt/internal/store"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

type modelDao struct {
	q    *queries
	opts metafmt.Params
}

func newModelDao(q *queries, opts metafmt.Params) metafmt.DAO {
	return &modelDao{q: q, opts: opts}
}

func (d *modelDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d *modelDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *modelDao) fetch(ctx context.Context, _ metafmt.Constraint, _ metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	if err := needOpts(d.opts, "ModelDao", OptModel); err != nil {
		return nil, metafmt.Params{}, err
	}
	id, err := d.q.idForModel(ctx, d.opts.Value(OptModel))
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	rec, err := d.q.row(ctx, "tblmodel", []string{"shortname", "name", "description", "releaseDate"},
		map[string]string{"idtblmodel": id})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(rec, map[string]string{
		"shortname":   "short_name",
		"name":        "long_name",
		"releaseDate": "release_date",
	})
	if rec["releaseDate"] != "" {
		if md["release_date"], err = parseDate(releaseDateLayout, rec["releaseDate"], "release date"); err != nil {
			return nil, metafmt.Params{}, err
		}
	}
	state := dbTable{nodeType: tableModel, id: id}.state().
		With(stateID, id).
		With(stateModelID, id)
	return md, state, nil
}

// subModelDao yields the components one level below its container. As the
// top element it describes the component named by the submodel option.
type subModelDao struct {
	q    *queries
	opts metafmt.Params
}

func newSubModelDao(q *queries, opts metafmt.Params) metafmt.DAO {
	return &subModelDao{q: q, opts: opts}
}

func (d *subModelDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	base := carry(container, stateTable, stateTableID, stateModelID)
	return base.With(stateLevel, nextLevel(container.Context())), nil
}

func (d *subModelDao) Expand(ctx context.Context, c metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	if _, contained := base.Get(stateLevel); !contained {
		return single(base), nil
	}
	if err := needID(c); err != nil {
		return nil, err
	}
	t, err := tableFrom(base, "sub-model")
	if err != nil {
		return nil, err
	}

	// Under a sub-model that was itself the top element the constraint is
	// that component's id, not the model's.
	modelID := base.Value(stateModelID)
	if modelID == "" {
		modelID = c.ID
	}
	parent := t.id
	if t.nodeType == tableModel {
		parent = store.Null
	}
	ids, err := d.q.column(ctx, "tblmodelcomponent", "idtModelComponent", map[string]string{
		"parentComponentID": parent,
		"modelID":           modelID,
		"level":             base.Value(stateLevel),
	})
	if err != nil {
		return nil, err
	}
	return fanOut(base, stateCompID, ids), nil
}

func (d *subModelDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *subModelDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	ids := metafmt.NewParams(map[string]string{
		stateCompID:  p.Value(stateCompID),
		stateModelID: p.Value(stateModelID),
		stateLevel:   p.Value(stateLevel),
	})
	if ids.Value(stateCompID) == "" {
		var err error
		if ids, err = d.idsFromNames(ctx); err != nil {
			return nil, metafmt.Params{}, err
		}
	}
	comp := ids.Value(stateCompID)

	rec, err := d.q.row(ctx, "tblmodelcomponent", []string{"name", "description", "type"},
		map[string]string{"idtModelComponent": comp})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(rec, map[string]string{"name": "short_name"})
	md["long_name"] = md["short_name"]

	state := dbTable{nodeType: tableComponent, id: comp}.state().Merge(ids).With(stateID, comp)
	return md, state, nil
}

func (d *subModelDao) idsFromNames(ctx context.Context) (metafmt.Params, error) {
	if err := needOpts(d.opts, "SubModelDao", OptModel, OptSubModel); err != nil {
		return metafmt.Params{}, err
	}
	model, submodel := d.opts.Value(OptModel), d.opts.Value(OptSubModel)
	modelID, err := d.q.idForModel(ctx, model)
	if err != nil {
		return metafmt.Params{}, err
	}
	rec, err := d.q.store.SingleRow(ctx, "tblmodelcomponent", []string{"idtModelComponent", "level"},
		map[string]string{"modelID": modelID, "name": submodel})
	if err != nil {
		return metafmt.Params{}, err
	}
	if rec == nil {
		return metafmt.Params{}, metafmt.NewMetadataError("no submodel called %s found in model %s", submodel, model)
	}
	return metafmt.NewParams(map[string]string{
		stateCompID:  rec["idtModelComponent"],
		stateModelID: modelID,
		stateLevel:   rec["level"],
	}), nil
}

const statePropID = "prop_id"

type componentPropertyDao struct {
	q *queries
}

func newComponentPropertyDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &componentPropertyDao{q: q}
}

func (d *componentPropertyDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	return carry(container, stateCompID), nil
}

// Expand yields the component's properties that have a value.
func (d *componentPropertyDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	comp := base.Value(stateCompID)
	if comp == "" {
		return nil, metafmt.NewMetadataError("need component id to find properties")
	}
	recs, err := d.q.store.MultiRow(ctx, "tblattribute", []string{"idattribute", "value"},
		map[string]string{"componentid": comp})
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range recs {
		if r["value"] != "" {
			ids = append(ids, r["idattribute"])
		}
	}
	return fanOut(base, statePropID, ids), nil
}

func (d *componentPropertyDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *componentPropertyDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	rec, err := d.q.row(ctx, "tblattribute", []string{"name", "definition", "units", "value"},
		map[string]string{"idattribute": p.Value(statePropID)})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(map[string]string{"definition": rec["definition"], "units": rec["units"]},
		map[string]string{"definition": "description"})

	// Property names are paths such as "Atmosphere:Dynamics:TimeStep".
	parts := strings.Split(rec["name"], ":")
	md["short_name"] = nil
	if last := parts[len(parts)-1]; last != "" {
		md["short_name"] = last
	}
	md["values"] = nil
	if rec["value"] != "" {
		var values []string
		for _, v := range strings.Split(rec["value"], ",") {
			values = append(values, strings.TrimSpace(v))
		}
		md["values"] = values
	}
	return md, metafmt.Params{}, nil
}

// modelComponentRefDao names the model an experiment was run with, for a
// by-name reference.
type modelComponentRefDao struct {
	q    *queries
	opts metafmt.Params
}

func newModelComponentRefDao(q *queries, opts metafmt.Params) metafmt.DAO {
	return &modelComponentRefDao{q: q, opts: opts}
}

func (d *modelComponentRefDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	if err := needOpts(d.opts, "ModelComponentRefDao", OptProject, OptExperiment, OptModel); err != nil {
		return nil, err
	}
	if _, err := d.q.experimentFor(ctx, d.opts); err != nil {
		return nil, err
	}
	modelID, err := d.q.idForModel(ctx, d.opts.Value(OptModel))
	if err != nil {
		return nil, err
	}
	return single(base.With(stateModelID, modelID)), nil
}

func (d *modelComponentRefDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *modelComponentRefDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	rec, err := d.q.row(ctx, "tblmodel", []string{"shortname"}, map[string]string{"idtblmodel": p.Value(stateModelID)})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(rec, map[string]string{"shortname": "name"})
	md["type"] = "ModelComponent"
	return md, metafmt.Params{}, nil
}

// deploymentDao stands in for deployments, which CREM does not record.
type deploymentDao struct{}

func newDeploymentDao(*queries, metafmt.Params) metafmt.DAO { return deploymentDao{} }

func (deploymentDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d deploymentDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (deploymentDao) fetch(context.Context, metafmt.Constraint, metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	return metafmt.Metadata{}, metafmt.Params{}, nil
}

func (deploymentDao) names(context.Context, metafmt.Params, string) ([]string, error) {
	return []string{NotProvided}, nil
}

const stateContactID = "contact_id"

var addressColumns = []string{"address", "city", "adminArea", "postcode", "country"}

type responsiblePartyDao struct {
	q *queries
}

func newResponsiblePartyDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &responsiblePartyDao{q: q}
}

func (d *responsiblePartyDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	t, err := tableFrom(container.Context(), "responsible party")
	if err != nil {
		return metafmt.Params{}, err
	}
	return t.state(), nil
}

func (d *responsiblePartyDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	t, err := tableFrom(base, "responsible party")
	if err != nil {
		return nil, err
	}
	ids, err := d.q.column(ctx, t.table(), "contactid", map[string]string{t.idColumn(): t.id})
	if err != nil {
		return nil, err
	}
	return fanOut(base, stateContactID, ids), nil
}

func (d *responsiblePartyDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *responsiblePartyDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	rec, err := d.q.row(ctx, "tblindividual",
		append([]string{"fullName", "email", "organisation"}, addressColumns...),
		map[string]string{"idperson": p.Value(stateContactID)})
	if err != nil {
		return nil, metafmt.Params{}, err
	}

	var address []string
	for _, col := range addressColumns {
		if rec[col] != "" {
			address = append(address, rec[col])
		}
	}
	md := toMetadata(map[string]string{
		"fullName": rec["fullName"],
		"email":    rec["email"],
		"address":  strings.Join(address, ","),
	}, map[string]string{"fullName": "individual_name"})

	if org := rec["organisation"]; org != "" {
		orgRec, err := d.q.row(ctx, "tblorganisation", []string{"name", "weblink"},
			map[string]string{"idorganisation": org})
		if err != nil {
			return nil, metafmt.Params{}, err
		}
		for k, v := range toMetadata(orgRec, map[string]string{"name": "organisation_name", "weblink": "url"}) {
			md[k] = v
		}
	}
	return md, metafmt.Params{}, nil
}

const stateCiteID = "cite_id"

type citationDao struct {
	q *queries
}

func newCitationDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &citationDao{q: q}
}

func (d *citationDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	t, err := tableFrom(container.Context(), "citation")
	if err != nil {
		return metafmt.Params{}, err
	}
	return t.state(), nil
}

func (d *citationDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	t, err := tableFrom(base, "citation")
	if err != nil {
		return nil, err
	}
	ids, err := d.q.column(ctx, "tblreferencelist", "referenceID", map[string]string{
		"objectType": t.citeType(),
		"objectID":   t.id,
	})
	if err != nil {
		return nil, err
	}
	return fanOut(base, stateCiteID, ids), nil
}

func (d *citationDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

// fetch takes the title from the citation text up to its first closing
// parenthesis, which ends the author-year part.
func (d *citationDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	cite := p.Value(stateCiteID)
	rec, err := d.q.store.SingleRow(ctx, "tblreference", []string{"citation", "date", "fullReference", "weblink"},
		map[string]string{"idtblCitation": cite})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	if rec == nil {
		return nil, metafmt.Params{}, metafmt.NewMetadataError("no citation found with cite id %s", cite)
	}

	year, err := strconv.Atoi(rec["date"])
	if err != nil {
		return nil, metafmt.Params{}, metafmt.NewMetadataError("bad citation year %q for cite id %s", rec["date"], cite)
	}
	citation := rec["citation"]
	md := toMetadata(map[string]string{
		"title":         citation[:strings.Index(citation, ")")+1],
		"fullReference": rec["fullReference"],
		"weblink":       rec["weblink"],
	}, map[string]string{"fullReference": "collective_title", "weblink": "location"})
	md["date"] = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return md, metafmt.Params{}, nil
}
