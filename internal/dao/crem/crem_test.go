package crem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// stubContainer is an enclosing instance exposing fixed state.
type stubContainer map[string]string

func (stubContainer) Metadata(context.Context, metafmt.Constraint) (metafmt.Metadata, error) {
	return metafmt.Metadata{}, nil
}
func (s stubContainer) ID() string              { return s[stateID] }
func (s stubContainer) Context() metafmt.Params { return metafmt.NewParams(s) }

func names(t *testing.T, inst metafmt.Instance, targetType string) ([]string, error) {
	t.Helper()
	namer, ok := inst.(metafmt.ReferenceNamer)
	require.True(t, ok, "instance cannot name references")
	return namer.NamesForReference(context.Background(), targetType)
}

func TestSite_Types(t *testing.T) {
	site := newTestSite(t)
	assert.Equal(t, SiteName, site.Name())
	assert.Len(t, site.Types(), 20)
	for _, typ := range []string{"DocumentSetDao", "SubModelDao", "GridTileDao", "ConformanceDao"} {
		_, ok := site.Lookup(typ)
		assert.True(t, ok, typ)
	}
}

func TestDocumentSetDao(t *testing.T) {
	site := newTestSite(t)

	doc := one(t, newDAO(t, site, "DocumentSetDao", historical), metafmt.Constraint{}, nil)
	assert.Equal(t, metafmt.Metadata{"short_name": "historical"}, doc.md)
	assert.Equal(t, "100", doc.inst.ID())

	tests := []struct {
		name string
		opts map[string]string
	}{
		{"missing experiment", map[string]string{OptModel: "HadGEM2-ES", OptProject: "CMIP5"}},
		{"unknown project", map[string]string{OptExperiment: "historical", OptModel: "HadGEM2-ES", OptProject: "CMIP6"}},
		{"unknown experiment", map[string]string{OptExperiment: "amip", OptModel: "HadGEM2-ES", OptProject: "CMIP5"}},
		{"no run with model", map[string]string{OptExperiment: "historical", OptModel: "UKESM1", OptProject: "CMIP5"}},
		{"several models match", map[string]string{OptExperiment: "rcp45", OptModel: "HadGEM2-ES", OptProject: "CMIP5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expand(t, newDAO(t, site, "DocumentSetDao", tt.opts), metafmt.Constraint{}, nil)
			assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency)
		})
	}
}

func TestNumericalExperimentAndRequirements(t *testing.T) {
	site := newTestSite(t)

	expt := one(t, newDAO(t, site, "NumericalExperimentDao", historical), metafmt.Constraint{}, nil)
	assert.Equal(t, metafmt.Metadata{
		"short_name":  "historical",
		"long_name":   "historical HadGEM2-ES",
		"description": "Historical run & more",
		"calendar":    "360_day",
	}, expt.md)
	assert.Equal(t, "100", expt.inst.ID())

	reqs, err := expand(t, newDAO(t, site, "NumericalRequirementDao", nil), metafmt.Constraint{ID: "100"}, expt.inst)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"initial", "boundary", "spatiotemporal"}, attr(reqs, "type"))
	assert.Equal(t, []interface{}{"Pre-industrial initial state", "Historical GHG", "Historical period"}, attr(reqs, "name"))
	assert.Equal(t, []interface{}{"Spun-up state", nil, nil}, attr(reqs, "description"))
}

func TestNumericalRequirementDao_Errors(t *testing.T) {
	site := newTestSite(t)
	d := newDAO(t, site, "NumericalRequirementDao", nil)

	_, err := expand(t, d, metafmt.Constraint{}, stubContainer{})
	assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency)

	_, err = expand(t, d, metafmt.Constraint{}, stubContainer{stateExptName: "amip"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown numerical requirement type "bogus"`)
}

func TestSimulationRunDao(t *testing.T) {
	site := newTestSite(t)
	d := newDAO(t, site, "SimulationRunDao", nil)

	run := one(t, d, metafmt.Constraint{ID: "100"}, nil)
	assert.Equal(t, "historical", run.md["short_name"])
	assert.Equal(t, "historical HadGEM2-ES", run.md["long_name"])
	assert.Equal(t, time.Date(1859, 12, 1, 0, 0, 0, 0, time.UTC), run.md["start_date"])
	assert.Equal(t, time.Date(2005, 12, 30, 0, 0, 0, 0, time.UTC), run.md["end_date"], "latest end among runs sharing the start")
	assert.Equal(t, "360_day", run.md["calendar"])
	assert.Empty(t, run.inst.ID(), "children keep the experiment constraint")
	assert.Equal(t, tableSimulation, run.inst.Context().Value(stateTable))

	got, err := names(t, run.inst, "NumericalExperiment")
	require.NoError(t, err)
	assert.Equal(t, []string{"historical"}, got)

	_, err = names(t, run.inst, "Platform")
	assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency)

	_, err = expand(t, d, metafmt.Constraint{}, nil)
	assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency, "needs a constraint")

	_, err = expand(t, d, metafmt.Constraint{ID: "102"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple calendar types")
}

func TestEnsembleDaos(t *testing.T) {
	site := newTestSite(t)
	c := metafmt.Constraint{ID: "100"}

	ens := one(t, newDAO(t, site, "EnsembleDao", nil), c, nil)
	assert.Equal(t, metafmt.Metadata{
		"short_name": "historical",
		"long_name":  "historical HadGEM2-ES",
		"type":       "Initial Condition",
	}, ens.md)
	got, err := names(t, ens.inst, "NumericalExperiment")
	require.NoError(t, err)
	assert.Equal(t, []string{"historical"}, got)

	members, err := expand(t, newDAO(t, site, "EnsembleMemberDao", nil), c, ens.inst)
	require.NoError(t, err)
	require.Len(t, members, 2, "the late-starting run is not a member")
	assert.Equal(t, []interface{}{"r1i1p1", "r2i1p1"}, attr(members, "standard_name"))
	assert.Equal(t, []interface{}{"historical_r1i1p1", "historical_r2i1p1"}, attr(members, "short_name"))
	assert.Equal(t, "Not provided by CREM", members[0].md["description"])

	got, err = names(t, members[1].inst, "SimulationRun")
	require.NoError(t, err)
	assert.Equal(t, []string{"historical"}, got)
}

func TestConformanceDao(t *testing.T) {
	site := newTestSite(t)
	c := metafmt.Constraint{ID: "100"}

	plain, err := expand(t, newDAO(t, site, "ConformanceDao", nil), c, nil)
	require.NoError(t, err)
	require.Len(t, plain, 2)
	assert.Equal(t, []interface{}{true, false}, attr(plain, "is_conformant"))
	assert.Equal(t, []interface{}{"Initialised from piControl", "Truncated"}, attr(plain, "description"))
	assert.Equal(t, []interface{}{"Via Inputs", "Code Modification"}, attr(plain, "type"))

	sourced, err := expand(t, newDAO(t, site, "ConformanceDao", map[string]string{OptConformanceType: "data_source"}), c, nil)
	require.NoError(t, err)
	require.Len(t, sourced, 1)
	assert.Equal(t, "conformance id 601", sourced[0].md["description"])

	got, err := names(t, sourced[0].inst, "DataObject")
	require.NoError(t, err)
	assert.Equal(t, []string{"CO2", "CH4"}, got)

	reqs, err := expand(t, newDAO(t, site, "NumericalRequirementRefDao", nil), c, plain[0].inst)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "InitialCondition", reqs[0].md["type"])
	assert.Equal(t, "Pre-industrial initial state", reqs[0].md["name"])

	factory, _ := site.Lookup("ConformanceDao")
	_, err = factory(metafmt.NewParams(map[string]string{OptConformanceType: "model_input"}))
	assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency)
}

func TestDataObjectAndPlatform(t *testing.T) {
	site := newTestSite(t)

	data, err := expand(t, newDAO(t, site, "DataObjectDao", nil), metafmt.Constraint{ID: "100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"CO2", "CH4"}, attr(data, "acronym"))
	assert.Equal(t, []interface{}{"Carbon dioxide concentrations", nil}, attr(data, "description"))

	platform := one(t, newDAO(t, site, "PlatformDao", nil), metafmt.Constraint{ID: "100"}, nil)
	assert.Equal(t, NotProvided, platform.md["compiler_version"])

	deployment := one(t, newDAO(t, site, "DeploymentDao", nil), metafmt.Constraint{}, nil)
	got, err := names(t, deployment.inst, "Platform")
	require.NoError(t, err)
	assert.Equal(t, []string{NotProvided}, got)
}

func TestModelTree(t *testing.T) {
	site := newTestSite(t)
	opts := map[string]string{OptModel: "HadGEM2-ES"}

	model := one(t, newDAO(t, site, "ModelDao", opts), metafmt.Constraint{}, nil)
	assert.Equal(t, "HadGEM2-ES", model.md["short_name"])
	assert.Equal(t, "Line one\n\nLine two", model.md["description"])
	assert.Equal(t, time.Date(2009, 3, 1, 0, 0, 0, 0, time.UTC), model.md["release_date"])
	assert.Equal(t, "1", model.inst.ID())

	c := metafmt.Constraint{ID: model.inst.ID()}
	subs, err := expand(t, newDAO(t, site, "SubModelDao", opts), c, model.inst)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Atmosphere", "Ocean"}, attr(subs, "short_name"))
	assert.Equal(t, []interface{}{"Atmosphere", "Ocean"}, attr(subs, "long_name"))
	assert.Equal(t, "1", subs[0].inst.Context().Value(stateLevel))

	atmos := subs[0]
	nested, err := expand(t, newDAO(t, site, "SubModelDao", opts), metafmt.Constraint{ID: atmos.inst.ID()}, atmos.inst)
	require.NoError(t, err)
	require.Len(t, nested, 1)
	assert.Equal(t, "Aerosols", nested[0].md["short_name"])
	assert.Equal(t, "AtmosphericChemistry", nested[0].md["type"])

	props, err := expand(t, newDAO(t, site, "ComponentPropertyDao", nil), metafmt.Constraint{ID: atmos.inst.ID()}, atmos.inst)
	require.NoError(t, err)
	require.Len(t, props, 2, "properties without a value are skipped")
	assert.Equal(t, []interface{}{"TimeStep", "Levels"}, attr(props, "short_name"))
	assert.Equal(t, []interface{}{[]string{"1800"}, []string{"38", "60"}}, attr(props, "values"))
	assert.Equal(t, "s", props[0].md["units"])
	assert.Nil(t, props[1].md["units"])
}

func TestSubModelDao_Top(t *testing.T) {
	site := newTestSite(t)

	top := one(t, newDAO(t, site, "SubModelDao", map[string]string{OptModel: "HadGEM2-ES", OptSubModel: "Atmosphere"}), metafmt.Constraint{}, nil)
	assert.Equal(t, "Atmosphere", top.md["short_name"])
	assert.Equal(t, "10", top.inst.ID())
	assert.Equal(t, "1", top.inst.Context().Value(stateModelID))

	children, err := expand(t, newDAO(t, site, "SubModelDao", nil), metafmt.Constraint{ID: top.inst.ID()}, top.inst)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Aerosols"}, attr(children, "short_name"))

	_, err = expand(t, newDAO(t, site, "SubModelDao", map[string]string{OptModel: "HadGEM2-ES", OptSubModel: "Land"}), metafmt.Constraint{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no submodel called Land")
}

func TestResponsiblePartyAndCitation(t *testing.T) {
	site := newTestSite(t)
	model := one(t, newDAO(t, site, "ModelDao", map[string]string{OptModel: "HadGEM2-ES"}), metafmt.Constraint{}, nil)

	party := one(t, newDAO(t, site, "ResponsiblePartyDao", nil), metafmt.Constraint{ID: "1"}, model.inst)
	assert.Equal(t, metafmt.Metadata{
		"individual_name":   "Jane Doe",
		"email":             "jane@example.org",
		"address":           "FitzRoy Road,Exeter,Devon,EX1 3PB,UK",
		"organisation_name": "Met Office",
		"url":               "http://www.metoffice.gov.uk",
	}, party.md)

	cite := one(t, newDAO(t, site, "CitationDao", nil), metafmt.Constraint{ID: "1"}, model.inst)
	assert.Equal(t, "Collins et al. (2011)", cite.md["title"])
	assert.Equal(t, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), cite.md["date"])
	assert.Equal(t, "Geosci. Model Dev., 4", cite.md["collective_title"])

	run := one(t, newDAO(t, site, "SimulationRunDao", nil), metafmt.Constraint{ID: "100"}, nil)
	sparse := one(t, newDAO(t, site, "ResponsiblePartyDao", nil), metafmt.Constraint{ID: "100"}, run.inst)
	assert.Equal(t, "John Roe", sparse.md["individual_name"])
	assert.Nil(t, sparse.md["email"])
	assert.NotContains(t, sparse.md, "organisation_name")

	_, err := expand(t, newDAO(t, site, "CitationDao", nil), metafmt.Constraint{ID: "100"}, run.inst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad citation year")

	_, err = expand(t, newDAO(t, site, "ResponsiblePartyDao", nil), metafmt.Constraint{ID: "100"}, stubContainer{})
	assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency)
}

func TestGridDaos(t *testing.T) {
	site := newTestSite(t)

	spec := one(t, newDAO(t, site, "GridSpecDao", nil), metafmt.Constraint{ID: "100"}, nil)
	assert.Equal(t, metafmt.Metadata{"short_name": "N96", "long_name": "N96 grid system", "description": nil}, spec.md)

	mosaics, err := expand(t, newDAO(t, site, "GridMosaicDao", nil), metafmt.Constraint{ID: "100"}, spec.inst)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"ATM", "OCN"}, attr(mosaics, "short_name"))
	assert.Equal(t, []interface{}{mosaicType, mosaicType}, attr(mosaics, "type"))

	tiles, err := expand(t, newDAO(t, site, "GridTileDao", nil), metafmt.Constraint{ID: "100"}, mosaics[0].inst)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"N96-T", "N96-UV"}, attr(tiles, "short_name"))
	assert.Equal(t, []interface{}{true, false}, attr(tiles, "is_uniform"))
	assert.Equal(t, []interface{}{true, true}, attr(tiles, "is_regular"))
	assert.Equal(t, discretizationType, tiles[0].md["discretization_type"])

	_, err = expand(t, newDAO(t, site, "GridSpecDao", nil), metafmt.Constraint{ID: "102"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple model ids")

	_, err = expand(t, newDAO(t, site, "GridTileDao", nil), metafmt.Constraint{ID: "100"}, stubContainer{})
	assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency)
}

func TestModelComponentRefDao(t *testing.T) {
	site := newTestSite(t)

	ref := one(t, newDAO(t, site, "ModelComponentRefDao", historical), metafmt.Constraint{ID: "100"}, nil)
	assert.Equal(t, metafmt.Metadata{"name": "HadGEM2-ES", "type": "ModelComponent"}, ref.md)

	_, err := expand(t, newDAO(t, site, "ModelComponentRefDao", map[string]string{OptModel: "HadGEM2-ES"}), metafmt.Constraint{}, nil)
	assert.ErrorIs(t, err, metafmt.ErrMetadataInconsistency)
}
