package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes the three node shapes of a parsed template.
type Kind int

const (
	ScalarNode Kind = iota + 1
	SequenceNode
	MappingNode
)

func (k Kind) String() string {
	switch k {
	case ScalarNode:
		return "scalar"
	case SequenceNode:
		return "sequence"
	case MappingNode:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ScalarType records the lexical type of a scalar.
type ScalarType int

const (
	StringScalar ScalarType = iota
	NumberScalar
	BoolScalar
	NullScalar
)

// Node is one value in a parsed template.
type Node struct {
	Kind   Kind
	Type   ScalarType
	Value  string
	Items  []*Node
	Fields []Field
	Line   int
}

// Field is one key/value pair of a mapping, in source order.
type Field struct {
	Key   string
	Value *Node
}

// Get returns the value stored under key in a mapping.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != MappingNode {
		return nil, false
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether a mapping contains key.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Keys returns a mapping's keys in source order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != MappingNode {
		return nil
	}
	keys := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Without returns a copy of a mapping with the named keys removed.
func (n *Node) Without(keys ...string) *Node {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := &Node{Kind: MappingNode, Line: n.Line}
	for _, f := range n.Fields {
		if !drop[f.Key] {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

// String returns the scalar text, or "" for nulls and non-scalars.
func (n *Node) String() string {
	if n == nil || n.Kind != ScalarNode || n.Type == NullScalar {
		return ""
	}
	return n.Value
}

// Bool reports whether the node is the boolean true.
func (n *Node) Bool() bool {
	return n != nil && n.Kind == ScalarNode && n.Type == BoolScalar && strings.EqualFold(n.Value, "true")
}

// Flatten turns a mapping into a flat string map. Nested mappings become
// dotted keys, sequences of scalars are joined with commas, and sequences
// of mappings are indexed:
//
//	{"references": {"DataObject": ["SST", "SIC"]}} -> references.DataObject=SST,SIC
//	{"instances": [{"short_name": "a"}]}            -> instances.0.short_name=a
func (n *Node) Flatten() (map[string]string, error) {
	out := make(map[string]string)
	if n == nil || (n.Kind == ScalarNode && n.Type == NullScalar) {
		return out, nil
	}
	if n.Kind != MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping, found a %s", n.Line, n.Kind)
	}
	flatten(out, "", n)
	return out, nil
}

func flatten(out map[string]string, prefix string, n *Node) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch n.Kind {
	case ScalarNode:
		out[prefix] = n.String()
	case MappingNode:
		for _, f := range n.Fields {
			flatten(out, join(f.Key), f.Value)
		}
	case SequenceNode:
		scalars := true
		for _, item := range n.Items {
			if item.Kind != ScalarNode {
				scalars = false
				break
			}
		}
		if scalars {
			parts := make([]string, len(n.Items))
			for i, item := range n.Items {
				parts[i] = item.String()
			}
			out[prefix] = strings.Join(parts, ",")
			return
		}
		for i, item := range n.Items {
			flatten(out, join(strconv.Itoa(i)), item)
		}
	}
}
