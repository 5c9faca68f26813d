package crem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// experimentNames maps the experiment table's name columns.
var experimentNames = map[string]string{"shortname": "short_name", "name": "long_name"}

type documentSetDao struct {
	q    *queries
	opts metafmt.Params
}

func newDocumentSetDao(q *queries, opts metafmt.Params) metafmt.DAO {
	return &documentSetDao{q: q, opts: opts}
}

func (d *documentSetDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d *documentSetDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *documentSetDao) fetch(ctx context.Context, _ metafmt.Constraint, _ metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	if err := needOpts(d.opts, "DocumentSetDao", OptExperiment, OptProject, OptModel); err != nil {
		return nil, metafmt.Params{}, err
	}
	id, err := d.q.experimentFor(ctx, d.opts)
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := metafmt.Metadata{"short_name": d.opts.Value(OptExperiment)}
	return md, metafmt.NewParams(map[string]string{stateID: id, stateExptID: id}), nil
}

type numericalExperimentDao struct {
	q    *queries
	opts metafmt.Params
}

func newNumericalExperimentDao(q *queries, opts metafmt.Params) metafmt.DAO {
	return &numericalExperimentDao{q: q, opts: opts}
}

func (d *numericalExperimentDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d *numericalExperimentDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *numericalExperimentDao) fetch(ctx context.Context, _ metafmt.Constraint, _ metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	if err := needOpts(d.opts, "NumericalExperimentDao", OptProject, OptExperiment, OptModel); err != nil {
		return nil, metafmt.Params{}, err
	}
	id, err := d.q.experimentFor(ctx, d.opts)
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	rec, err := d.q.row(ctx, "tblexperiment", []string{"shortname", "name", "description"},
		map[string]string{"idexperiment": id})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	calendar, err := d.q.calendarForExpt(ctx, id)
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(rec, experimentNames)
	md["calendar"] = calendar
	return md, metafmt.NewParams(map[string]string{
		stateID:       id,
		stateExptID:   id,
		stateExptName: rec["shortname"],
	}), nil
}

// CREM requirement types, translated to the element's requirement types
// and to the schema types they stand for.
var (
	requirementKinds = map[string]string{
		"initial":    "initial",
		"spatiotemp": "spatiotemporal",
		"forcing":    "boundary",
		"ensemble":   "initial",
	}
	requirementSchemaTypes = map[string]string{
		"initial":    "InitialCondition",
		"spatiotemp": "SpatioTemporalConstraint",
		"forcing":    "BoundaryCondition",
		"ensemble":   "InitialCondition",
	}
)

func requirementType(table map[string]string, crem string) (string, error) {
	t, ok := table[crem]
	if !ok {
		return "", metafmt.NewMetadataError("unknown numerical requirement type %q", crem)
	}
	return t, nil
}

type numericalRequirementDao struct {
	q *queries
}

func newNumericalRequirementDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &numericalRequirementDao{q: q}
}

func (d *numericalRequirementDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	return carry(container, stateExptName), nil
}

// Expand yields the requirements whose "includes" list names the enclosing
// experiment.
func (d *numericalRequirementDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	expt := base.Value(stateExptName)
	if expt == "" {
		return nil, metafmt.NewMetadataError("need a parent experiment name to find numerical requirements")
	}
	recs, err := d.q.store.MultiRow(ctx, "tblrequirements", []string{"id", "includes"}, nil)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range recs {
		if strings.Contains(r["includes"], expt) {
			ids = append(ids, r["id"])
		}
	}
	return fanOut(base, stateReqtID, ids), nil
}

func (d *numericalRequirementDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *numericalRequirementDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	md, err := d.q.requirement(ctx, p.Value(stateReqtID), requirementKinds)
	return md, metafmt.Params{}, err
}

func (q *queries) requirement(ctx context.Context, id string, types map[string]string) (metafmt.Metadata, error) {
	rec, err := q.row(ctx, "tblrequirements", []string{"type", "name", "description"}, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	md := toMetadata(rec, nil)
	t, err := requirementType(types, rec["type"])
	if err != nil {
		return nil, err
	}
	md["type"] = t
	return md, nil
}

// numericalRequirementRefDao describes the requirement a conformance
// answers, typed with its schema type for a by-name reference.
type numericalRequirementRefDao struct {
	q *queries
}

func newNumericalRequirementRefDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &numericalRequirementRefDao{q: q}
}

func (d *numericalRequirementRefDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	return carry(container, stateConfID), nil
}

func (d *numericalRequirementRefDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	conf := base.Value(stateConfID)
	if conf == "" {
		return nil, metafmt.NewMetadataError("need a conformance id to find its requirement")
	}
	ids, err := d.q.column(ctx, "tblconformance", "requirementid", map[string]string{"id": conf})
	if err != nil {
		return nil, err
	}
	return fanOut(base, stateReqtID, ids), nil
}

func (d *numericalRequirementRefDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *numericalRequirementRefDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	md, err := d.q.requirement(ctx, p.Value(stateReqtID), requirementSchemaTypes)
	return md, metafmt.Params{}, err
}

const stateAncillaryID = "ancillary_id"

type dataObjectDao struct {
	q *queries
}

func newDataObjectDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &dataObjectDao{q: q}
}

func (d *dataObjectDao) Expand(ctx context.Context, c metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	if err := needID(c); err != nil {
		return nil, err
	}
	ids, err := d.q.column(ctx, "tblconformancill", "ancillaryid", map[string]string{"experimentid": c.ID})
	if err != nil {
		return nil, err
	}
	return fanOut(base, stateAncillaryID, ids), nil
}

func (d *dataObjectDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *dataObjectDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	rec, err := d.q.row(ctx, "tblancillary", []string{"shortname", "description"},
		map[string]string{"id": p.Value(stateAncillaryID)})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	return toMetadata(rec, map[string]string{"shortname": "acronym"}), metafmt.Params{}, nil
}

// NotProvided fills attributes CREM does not record.
const NotProvided = "Not provided"

type platformDao struct{}

func newPlatformDao(*queries, metafmt.Params) metafmt.DAO { return platformDao{} }

func (platformDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d platformDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (platformDao) fetch(context.Context, metafmt.Constraint, metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	return metafmt.Metadata{
		"short_name":       NotProvided,
		"long_name":        NotProvided,
		"machine_name":     NotProvided,
		"compiler_name":    NotProvided,
		"compiler_version": NotProvided,
	}, metafmt.Params{}, nil
}

type simulationRunDao struct {
	q *queries
}

func newSimulationRunDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &simulationRunDao{q: q}
}

func (d *simulationRunDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d *simulationRunDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

// fetch gathers a run from three tables: names from the experiment, dates
// from its simulations, and the calendar from their model runs.
func (d *simulationRunDao) fetch(ctx context.Context, c metafmt.Constraint, _ metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	if err := needID(c); err != nil {
		return nil, metafmt.Params{}, err
	}
	rec, err := d.q.row(ctx, "tblexperiment", []string{"shortname", "name"}, map[string]string{"idexperiment": c.ID})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(rec, experimentNames)

	start, end, err := d.dateRange(ctx, c.ID)
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md["start_date"] = start
	md["end_date"] = end

	if md["calendar"], err = d.q.calendarForExpt(ctx, c.ID); err != nil {
		return nil, metafmt.Params{}, err
	}
	state := dbTable{nodeType: tableSimulation, id: c.ID}.state().With(stateExptID, c.ID)
	return md, state, nil
}

// dateRange assumes ensemble members share the first simulation's start
// date and takes the latest end date among them.
func (d *simulationRunDao) dateRange(ctx context.Context, exptID string) (time.Time, time.Time, error) {
	sims, err := d.q.store.MultiRow(ctx, "tblsimulation", []string{"simulationStartDate", "simulationEndDate"},
		map[string]string{"experimentid": exptID})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(sims) == 0 {
		return time.Time{}, time.Time{}, metafmt.NewMetadataError("no simulations for experiment id %s", exptID)
	}

	var start, end time.Time
	for i, sim := range sims {
		s, err := parseDate(simulationDateLayout, sim["simulationStartDate"], "simulation start date")
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		e, err := parseDate(simulationDateLayout, sim["simulationEndDate"], "simulation end date")
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		switch {
		case i == 0:
			start, end = s, e
		case s.Equal(start) && e.After(end):
			end = e
		}
	}
	return start, end, nil
}

func (d *simulationRunDao) names(ctx context.Context, state metafmt.Params, targetType string) ([]string, error) {
	return d.q.experimentName(ctx, state, targetType, "NumericalExperiment")
}

// experimentName answers a blank-name link with the enclosing experiment.
func (q *queries) experimentName(ctx context.Context, state metafmt.Params, targetType, want string) ([]string, error) {
	if err := checkTarget(targetType, want); err != nil {
		return nil, err
	}
	id := state.Value(stateExptID)
	if id == "" {
		return nil, metafmt.NewMetadataError("experiment id not set before naming references")
	}
	name, err := q.nameForExpt(ctx, id)
	if err != nil {
		return nil, err
	}
	return []string{name}, nil
}

type ensembleDao struct {
	q *queries
}

func newEnsembleDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &ensembleDao{q: q}
}

func (d *ensembleDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d *ensembleDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *ensembleDao) fetch(ctx context.Context, c metafmt.Constraint, _ metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	if err := needID(c); err != nil {
		return nil, metafmt.Params{}, err
	}
	rec, err := d.q.row(ctx, "tblexperiment", []string{"shortname", "name", "ensembleType"},
		map[string]string{"idexperiment": c.ID})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	code, err := d.q.row(ctx, "tblcodelist", []string{"codeDesc"},
		map[string]string{"type": "ensembletype", "code": rec["ensembleType"]})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	delete(rec, "ensembleType")
	md := toMetadata(rec, experimentNames)
	md["type"] = code["codeDesc"]
	return md, metafmt.NewParams(map[string]string{stateExptID: c.ID}), nil
}

func (d *ensembleDao) names(ctx context.Context, state metafmt.Params, targetType string) ([]string, error) {
	return d.q.experimentName(ctx, state, targetType, "NumericalExperiment")
}

const stateSimID = "sim_id"

type ensembleMemberDao struct {
	q *queries
}

func newEnsembleMemberDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &ensembleMemberDao{q: q}
}

// Expand yields one member per simulation starting with the first one.
func (d *ensembleMemberDao) Expand(ctx context.Context, c metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	if err := needID(c); err != nil {
		return nil, err
	}
	sims, err := d.q.store.MultiRow(ctx, "tblsimulation", []string{"idtblsimulation", "simulationStartDate"},
		map[string]string{"experimentid": c.ID})
	if err != nil || len(sims) == 0 {
		return nil, err
	}
	start := sims[0]["simulationStartDate"]
	var records []metafmt.Params
	for _, sim := range sims {
		if sim["simulationStartDate"] != start {
			continue
		}
		records = append(records, base.With(stateSimID, sim["idtblsimulation"]).With(stateExptID, c.ID))
	}
	return records, nil
}

func (d *ensembleMemberDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *ensembleMemberDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	rec, err := d.q.row(ctx, "tblsimulation",
		[]string{"ensembleInit", "ensembleInitType", "ensemblePerturb", "shortname", "name"},
		map[string]string{"idtblsimulation": p.Value(stateSimID)})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	names := toMetadata(map[string]string{"shortname": rec["shortname"], "name": rec["name"]}, experimentNames)
	return metafmt.Metadata{
		"standard_name": fmt.Sprintf("r%si%sp%s", rec["ensembleInit"], rec["ensembleInitType"], rec["ensemblePerturb"]),
		"short_name":    names["short_name"],
		"long_name":     names["long_name"],
		"description":   "Not provided by CREM",
	}, metafmt.Params{}, nil
}

func (d *ensembleMemberDao) names(ctx context.Context, state metafmt.Params, targetType string) ([]string, error) {
	return d.q.experimentName(ctx, state, targetType, "SimulationRun")
}

const dataSourceConformance = "data_source"

// conformanceDao yields either the conformances backed by a data source
// ("type": "data_source") or all the others.
type conformanceDao struct {
	q          *queries
	dataSource bool
}

func newConformanceDao(q *queries, opts metafmt.Params) (metafmt.DAO, error) {
	d := &conformanceDao{q: q}
	switch t := opts.Value(OptConformanceType); t {
	case "":
	case dataSourceConformance:
		d.dataSource = true
	default:
		return nil, metafmt.NewMetadataError("unknown conformance type %s", t)
	}
	return d, nil
}

func (d *conformanceDao) Expand(ctx context.Context, c metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	if err := needID(c); err != nil {
		return nil, err
	}
	where := map[string]string{"experimentid": c.ID}
	sourced, err := d.q.column(ctx, "tblconformancill", "conformanceid", where)
	if err != nil {
		return nil, err
	}
	ids := distinct(sourced)
	if !d.dataSource {
		all, err := d.q.column(ctx, "tblconformance", "id", where)
		if err != nil {
			return nil, err
		}
		ids = without(distinct(all), ids)
	}

	records := make([]metafmt.Params, 0, len(ids))
	for _, id := range ids {
		rec, err := d.q.row(ctx, "tblconformance", []string{"requirementid"}, map[string]string{"id": id})
		if err != nil {
			return nil, err
		}
		records = append(records, base.
			With(stateConfID, id).
			With(stateReqtID, rec["requirementid"]).
			With(stateExptID, c.ID))
	}
	return records, nil
}

func (d *conformanceDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *conformanceDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	conf := p.Value(stateConfID)
	rec, err := d.q.row(ctx, "tblconformance", []string{"noncompliance", "method", "compliance"},
		map[string]string{"id": conf})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(map[string]string{"method": rec["method"], "compliance": rec["compliance"]},
		map[string]string{"method": "type", "compliance": "description"})
	md["is_conformant"] = rec["noncompliance"] == ""
	if md["description"] == nil {
		md["description"] = "conformance id " + conf
	}
	return md, metafmt.Params{}, nil
}

// names lists the data objects a conformance is backed by.
func (d *conformanceDao) names(ctx context.Context, state metafmt.Params, targetType string) ([]string, error) {
	if err := checkTarget(targetType, "DataObject"); err != nil {
		return nil, err
	}
	conf, expt := state.Value(stateConfID), state.Value(stateExptID)
	if conf == "" || expt == "" {
		return nil, metafmt.NewMetadataError("conformance ids not set before naming references")
	}
	ids, err := d.q.column(ctx, "tblconformancill", "ancillaryid",
		map[string]string{"conformanceid": conf, "experimentid": expt})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, err := d.q.row(ctx, "tblancillary", []string{"shortname"}, map[string]string{"id": id})
		if err != nil {
			return nil, err
		}
		names = append(names, rec["shortname"])
	}
	return names, nil
}

func distinct(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func without(values, drop []string) []string {
	skip := map[string]bool{}
	for _, v := range drop {
		skip[v] = true
	}
	var out []string
	for _, v := range values {
		if !skip[v] {
			out = append(out, v)
		}
	}
	return out
}
