package template

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

const modelJSONC = `{
	// Model document: the top level carries the institute.
	"institute": "mohc",
	"Model": {
		"dao": {"ModelDao": {}},
		"contents": [
			{"Citation": {"dao": {"CitationDao": {}}}},
			{"ResponsibleParty": {"dao": {"ResponsiblePartyDao": {}}}},
		],
	}
}`

func TestParse_JSONCPreservesOrder(t *testing.T) {
	root, err := Parse([]byte(modelJSONC), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, MappingNode, root.Kind)
	assert.Equal(t, []string{"institute", "Model"}, root.Keys())

	model, ok := root.Get("Model")
	require.True(t, ok)
	contents, ok := model.Get("contents")
	require.True(t, ok)
	require.Equal(t, SequenceNode, contents.Kind)
	require.Len(t, contents.Items, 2)
	assert.Equal(t, []string{"Citation"}, contents.Items[0].Keys())
	assert.Equal(t, []string{"ResponsibleParty"}, contents.Items[1].Keys())
}

func TestParse_MappingKeyOrderIsSourceOrder(t *testing.T) {
	// Keys deliberately out of lexical order.
	src := `{"zeta": 1, "alpha": 2, "mid": 3}`
	root, err := Parse([]byte(src), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, root.Keys())
}

func TestParse_YAML(t *testing.T) {
	src := `
project: CMIP5
DocumentSet:
  dao: {NullDao: {}}
  contents:
    - Platform:
        dao: {NullDao: {}}
    - DocReference:
        link: {type: Platform, name: ""}
        link_to: platform_reference
        optional: true
`
	root, err := Parse([]byte(src), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"project", "DocumentSet"}, root.Keys())

	ds, _ := root.Get("DocumentSet")
	contents, _ := ds.Get("contents")
	require.Len(t, contents.Items, 2)
	ref, _ := contents.Items[1].Get("DocReference")
	opt, _ := ref.Get("optional")
	assert.True(t, opt.Bool())
	link, _ := ref.Get("link")
	name, _ := link.Get("name")
	assert.Equal(t, "", name.String())
}

func TestParse_ScalarTypes(t *testing.T) {
	root, err := Parse([]byte(`{"s": "x", "n": 3.5, "b": false, "z": null}`), FormatJSON)
	require.NoError(t, err)

	tests := []struct {
		key  string
		typ  ScalarType
		text string
	}{
		{"s", StringScalar, "x"},
		{"n", NumberScalar, "3.5"},
		{"b", BoolScalar, "false"},
		{"z", NullScalar, ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			n, ok := root.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.typ, n.Type)
			assert.Equal(t, tt.text, n.String())
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		format Format
	}{
		{"truncated json", `{"Model": {"dao": `, FormatJSON},
		{"missing colon", `{"Model" {}}`, FormatJSON},
		{"duplicate json key", `{"a": 1, "a": 2}`, FormatJSON},
		{"trailing data", `{"a": 1} {"b": 2}`, FormatJSON},
		{"empty json", ``, FormatJSON},
		{"bad yaml", "a: [1, 2\n", FormatYAML},
		{"duplicate yaml key", "a: 1\na: 2\n", FormatYAML},
		{"empty yaml", "", FormatYAML},
		{"self-referential alias", "a: &a [*a]\n", FormatYAML},
		{"mutual aliases", "a: &a {b: &b [*a]}\nc: *b\n", FormatYAML},
		{"alias expansion", aliasBomb(), FormatYAML},
		{"unknown format", `{}`, Format("toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, metafmt.ErrTemplate)
		})
	}
}

func TestNode_Flatten(t *testing.T) {
	src := `{
		"type": "data_source",
		"level": 2,
		"references": {"DataObject": ["SST", "SIC"]},
		"instances": [{"short_name": "a"}, {"short_name": "b", "extra": null}]
	}`
	root, err := Parse([]byte(src), FormatJSON)
	require.NoError(t, err)

	m, err := root.Flatten()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"type":                  "data_source",
		"level":                 "2",
		"references.DataObject": "SST,SIC",
		"instances.0.short_name": "a",
		"instances.1.short_name": "b",
		"instances.1.extra":      "",
	}, m)

	empty, err := (&Node{Kind: ScalarNode, Type: NullScalar}).Flatten()
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = (&Node{Kind: SequenceNode}).Flatten()
	assert.Error(t, err)
}

func TestNode_Without(t *testing.T) {
	root, err := Parse([]byte(`{"institute": "mohc", "project": "p", "Model": {}}`), FormatJSON)
	require.NoError(t, err)

	rest := root.Without("institute", "project")
	assert.Equal(t, []string{"Model"}, rest.Keys())
	assert.Len(t, root.Keys(), 3, "Without must not modify the receiver")
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"model.yaml":     FormatYAML,
		"conf/model.YML": FormatYAML,
		"model.fmt":      FormatJSON,
		"model.jsonc":    FormatJSON,
		"no-extension":   FormatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}

	root, err := Parse([]byte("Model:\n  dao: {ModelDao: {}}\n"), FormatFromPath("model.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Model"}, root.Keys())
}

func TestParse_YAMLAliasesExpand(t *testing.T) {
	src := `
defaults: &party {dao: {ResponsiblePartyDao: {}}}
Model:
  contents:
    - ResponsibleParty: *party
    - ResponsibleParty: *party
`
	root, err := Parse([]byte(src), FormatYAML)
	require.NoError(t, err)
	model, _ := root.Get("Model")
	contents, _ := model.Get("contents")
	require.Len(t, contents.Items, 2)
	for _, item := range contents.Items {
		party, _ := item.Get("ResponsibleParty")
		assert.Equal(t, []string{"dao"}, party.Keys())
	}
}

// aliasBomb returns a few hundred bytes of YAML whose aliases expand to
// ten million nodes.
func aliasBomb() string {
	var b strings.Builder
	b.WriteString("l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&b, "l%d: &l%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*l%d", i-1)
		}
		b.WriteString("]\n")
	}
	return b.String()
}
