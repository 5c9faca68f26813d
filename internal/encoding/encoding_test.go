package encoding

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

type fixedIDs struct{ n int }

func (f *fixedIDs) NewID(typeName string) string {
	f.n++
	return strings.ToLower(typeName) + "-" + string(rune('0'+f.n))
}

func sampleTree() *schema.Element {
	ids := &fixedIDs{}
	root := schema.New(ids, "NumericalExperiment", "MOHC", "CMIP5")
	root.Set("short_name", "historical")
	root.Set("long_name", "Historical <1850-2005> & more")
	root.Set("start", time.Date(1859, 12, 1, 0, 0, 0, 0, time.UTC))
	root.Set("keywords", []string{"past", "forced"})
	root.Set("ensemble_size", 3)
	root.Set("is_open", true)

	req := schema.New(ids, "InitialCondition", "MOHC", "CMIP5")
	req.Set("short_name", "init|1")
	root.Append("requirements", req)
	req2 := schema.New(ids, "BoundaryCondition", "MOHC", "CMIP5")
	req2.Set("short_name", "bc_2")
	root.Append("requirements", req2)

	ref := schema.New(ids, "DocReference", "", "")
	ref.Set("name", "HadGEM2-ES")
	root.Put("model_reference", ref)
	return root
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" XML ", FormatXML, false},
		{"yml", FormatYAML, false},
		{"cbor", FormatCBOR, false},
		{"html", FormatHTML, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, metafmt.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatXML, FormatForPath("out/doc.xml"))
	assert.Equal(t, FormatJSON, FormatForPath("doc.json.zst"))
	assert.Equal(t, FormatYAML, FormatForPath("doc.yml"))
	assert.Equal(t, Format(""), FormatForPath("doc.txt"))
	assert.Equal(t, Format(""), FormatForPath("doc"))
}

func TestEncodeJSON_KeepsOrder(t *testing.T) {
	data, err := Encode(sampleTree(), FormatJSON)
	require.NoError(t, err)

	s := string(data)
	order := []string{`"meta"`, `"short_name"`, `"long_name"`, `"start"`, `"keywords"`, `"requirements"`, `"model_reference"`}
	last := -1
	for _, key := range order {
		i := strings.Index(s, key)
		require.GreaterOrEqual(t, i, 0, "missing %s", key)
		assert.Greater(t, i, last, "%s out of order", key)
		last = i
	}

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "1859-12-01", doc["start"])
	assert.Equal(t, []interface{}{"past", "forced"}, doc["keywords"])
	assert.Equal(t, float64(3), doc["ensemble_size"])
	assert.Equal(t, true, doc["is_open"])

	meta := doc["meta"].(map[string]interface{})
	assert.Equal(t, "numericalexperiment-1", meta["id"])
	assert.Equal(t, "MOHC", meta["institute"])

	reqs := doc["requirements"].([]interface{})
	require.Len(t, reqs, 2)
	assert.Equal(t, "init|1", reqs[0].(map[string]interface{})["short_name"])

	ref := doc["model_reference"].(map[string]interface{})
	refMeta := ref["meta"].(map[string]interface{})
	_, hasInstitute := refMeta["institute"]
	assert.False(t, hasInstitute)
}

func TestEncodeYAML(t *testing.T) {
	data, err := Encode(sampleTree(), FormatYAML)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "meta:\n"))

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "historical", doc["short_name"])
	reqs := doc["requirements"].([]interface{})
	assert.Len(t, reqs, 2)
}

func TestEncodeXML(t *testing.T) {
	data, err := Encode(sampleTree(), FormatXML)
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, xml.Header))
	assert.Contains(t, s, `<NumericalExperiment id="numericalexperiment-1" institute="MOHC" project="CMIP5" version="0">`)
	assert.Contains(t, s, "<long_name>Historical &lt;1850-2005&gt; &amp; more</long_name>")
	assert.Equal(t, 1, strings.Count(s, "<keywords>past</keywords>"))
	assert.Equal(t, 1, strings.Count(s, "<keywords>forced</keywords>"))
	assert.Contains(t, s, "<requirements>")

	var probe struct {
		XMLName xml.Name
		ID      string `xml:"id,attr"`
	}
	require.NoError(t, xml.Unmarshal(data, &probe))
	assert.Equal(t, "NumericalExperiment", probe.XMLName.Local)
}

func TestEncodeCBOR_Deterministic(t *testing.T) {
	a, err := Encode(sampleTree(), FormatCBOR)
	require.NoError(t, err)
	b, err := Encode(sampleTree(), FormatCBOR)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	dec, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]interface{}(nil))}.DecMode()
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, dec.Unmarshal(a, &doc))
	assert.Equal(t, "historical", doc["short_name"])
	assert.Equal(t, uint64(3), doc["ensemble_size"])
}

func TestEncodeHTML(t *testing.T) {
	data, err := Encode(sampleTree(), FormatHTML)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, "<title>NumericalExperiment: historical</title>")
	assert.Contains(t, s, "<h1>NumericalExperiment: historical</h1>")
	assert.Contains(t, s, "<h2>InitialCondition: init|1 (requirements)</h2>")
	assert.Contains(t, s, "<table>")
	assert.Contains(t, s, "Historical &lt;1850-2005&gt; &amp; more")
	assert.NotContains(t, s, "<1850")
}

func TestWriteFile_Compressed(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("metadata "), 200)

	plainPath := filepath.Join(dir, "doc.json")
	written, err := WriteFile(plainPath, data)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	zstPath := filepath.Join(dir, "doc.json.zst")
	written, err = WriteFile(zstPath, data)
	require.NoError(t, err)
	assert.Less(t, len(written), len(data))

	onDisk, err := os.ReadFile(zstPath)
	require.NoError(t, err)
	assert.Equal(t, written, onDisk)

	back, err := Decompress(onDisk)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}
