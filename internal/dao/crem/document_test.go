package crem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/metafmt/internal/assembly"
	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/internal/template"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// experimentDocument refers right to the experiment and the data objects;
// arranging moves them ahead of the run.
const experimentDocument = `{
	// the experiment document set, as written for CMIP5
	"id_dao": {"DocIdDao": {}},
	"DocumentSet": {
		"dao": {"DocumentSetDao": {}},
		"contents": [
			{"SimulationRun": {
				"dao": {"SimulationRunDao": {}},
				"contents": [
					{"DocReference": {"link_to": "supports_references",
						"link": {"type": "NumericalExperiment", "name": ""}}},
					{"Conformance": {
						"dao": {"ConformanceDao": {"type": "data_source"}},
						"contents": [
							{"DocReference": {"link_to": "sources_references",
								"link": {"type": "DataObject", "name": ""}}}
						]
					}}
				]
			}},
			{"NumericalExperiment": {
				"dao": {"NumericalExperimentDao": {}},
				"contents": [{"NumericalRequirement": {"dao": {"NumericalRequirementDao": {}}}}]
			}},
			{"DataObject": {"dao": {"DataObjectDao": {}}}},
		]
	}
}`

func TestExperimentDocument(t *testing.T) {
	site := newTestSite(t)

	tree, err := template.Parse([]byte(experimentDocument), template.FormatJSON)
	require.NoError(t, err)
	doc, err := assembly.NewBuilder(site, map[string]string{
		metafmt.AttrInstitute: "MOHC",
		metafmt.AttrProject:   "CMIP5",
	}, historical).Build(tree)
	require.NoError(t, err)
	doc.Root = assembly.Arrange(doc.Root)

	w := assembly.NewWalker()
	w.IDs = schema.NewStableIDs("crem-test")
	root, err := w.Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, schema.Validate(root))

	expt := root.Children("experiment")
	require.Len(t, expt, 1)
	assert.Len(t, expt[0].Children("requirements"), 3)

	data := root.Children("data")
	require.Len(t, data, 2)

	run := root.Children("simulation")
	require.Len(t, run, 1)
	supports := run[0].Children("supports_references")
	require.Len(t, supports, 1)
	assert.Equal(t, expt[0].ID, supports[0].GetString("id"))
	assert.Equal(t, "historical", supports[0].GetString("name"))

	conformances := run[0].Children("conformances")
	require.Len(t, conformances, 1)
	sources := conformances[0].Children("sources_references")
	require.Len(t, sources, 2)
	assert.Equal(t, data[0].ID, sources[0].GetString("id"))
	assert.Equal(t, data[1].ID, sources[1].GetString("id"))
	assert.Equal(t, "CH4", sources[1].GetString("name"))
}
