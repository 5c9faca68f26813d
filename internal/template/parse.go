package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Format is a template source syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the syntax from a file extension. Anything that is
// not .yaml or .yml is read as JSON, which covers the .fmt, .json and
// .jsonc templates in use.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse turns raw template text into a Node tree. It performs no semantic
// checks beyond rejecting duplicate mapping keys.
func Parse(data []byte, format Format) (*Node, error) {
	var (
		root *Node
		err  error
	)
	switch format {
	case FormatYAML:
		root, err = parseYAML(data)
	case FormatJSON, "":
		root, err = parseJSON(data)
	default:
		return nil, metafmt.NewTemplateError("", "unsupported template format %q", format)
	}
	if err != nil {
		var te *metafmt.TemplateError
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, &metafmt.TemplateError{Message: fmt.Sprintf("error parsing %s template", format), Err: err}
	}
	return root, nil
}

func parseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("empty template")
	}
	c := &yamlConverter{following: map[*yaml.Node]bool{}}
	return c.convert(doc.Content[0])
}

// maxYAMLNodes bounds the expanded size of a YAML template, so that nested
// aliases cannot multiply a small file into millions of nodes.
const maxYAMLNodes = 100000

type yamlConverter struct {
	// following holds the anchors whose aliases are being expanded.
	following map[*yaml.Node]bool
	nodes     int
}

func (c *yamlConverter) convert(y *yaml.Node) (*Node, error) {
	c.nodes++
	if c.nodes > maxYAMLNodes {
		return nil, fmt.Errorf("line %d: template expands to more than %d nodes", y.Line, maxYAMLNodes)
	}
	switch y.Kind {
	case yaml.AliasNode:
		if c.following[y.Alias] {
			return nil, fmt.Errorf("line %d: alias cycle through *%s", y.Line, y.Value)
		}
		c.following[y.Alias] = true
		defer delete(c.following, y.Alias)
		return c.convert(y.Alias)
	case yaml.ScalarNode:
		n := &Node{Kind: ScalarNode, Value: y.Value, Line: y.Line}
		switch y.ShortTag() {
		case "!!int", "!!float":
			n.Type = NumberScalar
		case "!!bool":
			n.Type = BoolScalar
		case "!!null":
			n.Type = NullScalar
		}
		return n, nil
	case yaml.SequenceNode:
		n := &Node{Kind: SequenceNode, Line: y.Line}
		for _, item := range y.Content {
			child, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, child)
		}
		return n, nil
	case yaml.MappingNode:
		// MappingNode.Content is a flat list of alternating key / value nodes.
		n := &Node{Kind: MappingNode, Line: y.Line}
		seen := make(map[string]bool, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			key := y.Content[i]
			if seen[key.Value] {
				return nil, fmt.Errorf("line %d: duplicate key %q", key.Line, key.Value)
			}
			seen[key.Value] = true
			value, err := c.convert(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			n.Fields = append(n.Fields, Field{Key: key.Value, Value: value})
		}
		return n, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected YAML node kind %d", y.Line, y.Kind)
	}
}

// parseJSON streams tokens rather than unmarshalling into a map, which
// would lose key order.
func parseJSON(data []byte) (*Node, error) {
	stripped := jsonc.ToJSON(data)
	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.UseNumber()

	p := &jsonParser{dec: dec, src: stripped}
	root, err := p.value()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("line %d: unexpected data after top-level value", p.line())
	}
	return root, nil
}

type jsonParser struct {
	dec *json.Decoder
	src []byte
}

func (p *jsonParser) line() int {
	offset := int(p.dec.InputOffset())
	if offset > len(p.src) {
		offset = len(p.src)
	}
	return bytes.Count(p.src[:offset], []byte("\n")) + 1
}

func (p *jsonParser) value() (*Node, error) {
	line := p.line()
	tok, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("empty template")
		}
		return nil, fmt.Errorf("line %d: %w", p.line(), err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object(line)
		case '[':
			return p.array(line)
		}
		return nil, fmt.Errorf("line %d: unexpected %q", line, t)
	case string:
		return &Node{Kind: ScalarNode, Type: StringScalar, Value: t, Line: line}, nil
	case json.Number:
		return &Node{Kind: ScalarNode, Type: NumberScalar, Value: t.String(), Line: line}, nil
	case bool:
		return &Node{Kind: ScalarNode, Type: BoolScalar, Value: fmt.Sprint(t), Line: line}, nil
	case nil:
		return &Node{Kind: ScalarNode, Type: NullScalar, Line: line}, nil
	}
	return nil, fmt.Errorf("line %d: unexpected token %v", line, tok)
}

func (p *jsonParser) object(line int) (*Node, error) {
	n := &Node{Kind: MappingNode, Line: line}
	seen := make(map[string]bool)
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line(), err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("line %d: object key must be a string", p.line())
		}
		if seen[key] {
			return nil, fmt.Errorf("line %d: duplicate key %q", p.line(), key)
		}
		seen[key] = true
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Fields = append(n.Fields, Field{Key: key, Value: value})
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, fmt.Errorf("line %d: %w", p.line(), err)
	}
	return n, nil
}

func (p *jsonParser) array(line int) (*Node, error) {
	n := &Node{Kind: SequenceNode, Line: line}
	for p.dec.More() {
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, item)
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, fmt.Errorf("line %d: %w", p.line(), err)
	}
	return n, nil
}
