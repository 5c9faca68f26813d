package assembly

import (
	"errors"
	"sort"
	"strings"

	"github.com/vvka-141/metafmt/internal/elements"
	"github.com/vvka-141/metafmt/internal/idregistry"
	"github.com/vvka-141/metafmt/internal/template"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Reserved template keys.
const (
	keyDAO      = "dao"
	keyLink     = "link"
	keyContents = "contents"
	keyIDDAO    = "id_dao"
)

// Link names a previously registered element. An empty Name asks the
// enclosing instance for the names it refers to.
type Link struct {
	Type     string
	Name     string
	Optional bool
}

// Node is one resolved template position.
type Node struct {
	Kind *elements.Kind

	// Path locates the node in the template, e.g. "DocumentSet/SimulationRun".
	Path string

	// Index is the node's position among its template siblings.
	Index int

	// Attrs are the node's scalar template attributes.
	Attrs map[string]string

	Institute string
	Project   string

	// Exactly one of DAO and Link is set.
	DAO     metafmt.DAO
	DAOType string
	Link    *Link

	// Env is the DAO environment the node was resolved with.
	Env metafmt.Params

	Children []*Node

	// Below holds every type at or under this node, registry aliases included.
	Below map[string]bool

	// RefersTo holds every type this node or a descendant links to.
	RefersTo map[string]bool

	// Requires is the part of RefersTo reached through at least one link
	// that is not optional.
	Requires map[string]bool
}

// ChildKinds returns the kind names of the node's children, in order.
func (n *Node) ChildKinds() []string {
	names := make([]string, len(n.Children))
	for i, c := range n.Children {
		names[i] = c.Kind.Name
	}
	return names
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(depth int, n *Node)) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node)) {
	fn(depth, n)
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Document is a built template, ready to arrange and walk.
type Document struct {
	Root     *Node
	Registry idregistry.Registry
}

// Builder resolves a parsed template into a Node tree.
type Builder struct {
	Site metafmt.Site

	// Globals supply institute and project when the template omits them.
	Globals map[string]string

	// Env is the DAO environment every node's options are layered over.
	Env map[string]string
}

// NewBuilder returns a Builder for site.
func NewBuilder(site metafmt.Site, globals, env map[string]string) *Builder {
	return &Builder{Site: site, Globals: globals, Env: env}
}

// Build resolves every node of root: element kinds, DAOs, links, inherited
// attributes, and the below/refers-to sets.
func (b *Builder) Build(root *template.Node) (*Document, error) {
	if root == nil || root.Kind != template.MappingNode {
		return nil, metafmt.NewTemplateError("", "template must be a mapping with one element type")
	}

	globals := map[string]string{}
	for k, v := range b.Globals {
		globals[k] = v
	}
	for _, attr := range []string{metafmt.AttrInstitute, metafmt.AttrProject} {
		if v, ok := root.Get(attr); ok {
			if v.Kind != template.ScalarNode {
				return nil, metafmt.NewTemplateError("", "%s must be a string", attr)
			}
			globals[attr] = v.String()
		}
	}

	registry, err := registryFor(root)
	if err != nil {
		return nil, err
	}

	rest := root.Without(metafmt.AttrInstitute, metafmt.AttrProject, keyIDDAO)
	if len(rest.Fields) != 1 {
		return nil, &metafmt.TemplateError{
			Message: "template must have exactly one top-level element",
			Hint:    "found: " + strings.Join(rest.Keys(), ", "),
		}
	}

	top := rest.Fields[0]
	node, err := b.node("", top.Key, top.Value, globals, true)
	if err != nil {
		return nil, err
	}
	if node.Link != nil {
		return nil, metafmt.NewTemplateError(node.Path, "the top-level element needs a dao, not a link")
	}

	if registry == nil {
		if len(node.RefersTo) > 0 {
			return nil, &metafmt.TemplateError{
				Message: "template has links but no id_dao",
				Hint:    `add "id_dao": {"DocIdDao": {}} at the top level`,
			}
		}
		registry = idregistry.Null{}
	}
	return &Document{Root: node, Registry: registry}, nil
}

func registryFor(root *template.Node) (idregistry.Registry, error) {
	v, ok := root.Get(keyIDDAO)
	if !ok {
		return nil, nil
	}
	if v.Kind != template.MappingNode || len(v.Fields) != 1 {
		return nil, metafmt.NewTemplateError(keyIDDAO, "id_dao must be a mapping with one registry type")
	}
	name := v.Fields[0].Key
	factory, ok := idregistry.Factories[name]
	if !ok {
		return nil, &metafmt.TemplateError{
			Path:    keyIDDAO,
			Message: "unknown id registry " + name,
			Hint:    "known registries: " + strings.Join(sortedKeys(idregistry.Factories), ", "),
		}
	}
	return factory(), nil
}

func (b *Builder) node(parentPath, name string, value *template.Node, globals map[string]string, top bool) (*Node, error) {
	path := name
	if parentPath != "" {
		path = parentPath + "/" + name
	}

	kind, ok := elements.Lookup(name)
	if !ok {
		return nil, &metafmt.TemplateError{
			Path:    path,
			Message: "unknown element type " + name,
			Hint:    "known element types: " + strings.Join(elements.Names(), ", "),
		}
	}
	if !top && kind.RootOnly() {
		return nil, metafmt.NewTemplateError(path, "%s can only be the top-level element", name)
	}
	if value == nil || value.Kind != template.MappingNode {
		return nil, metafmt.NewTemplateError(path, "%s must be a mapping", name)
	}

	n := &Node{
		Kind:     kind,
		Path:     path,
		Attrs:    map[string]string{},
		Below:    map[string]bool{kind.Name: true},
		RefersTo: map[string]bool{},
		Requires: map[string]bool{},
	}
	if kind.Registers != "" {
		n.Below[kind.Registers] = true
	}

	for _, f := range value.Without(keyDAO, keyLink, keyContents).Fields {
		if f.Value.Kind != template.ScalarNode {
			return nil, metafmt.NewTemplateError(path, "attribute %s must be a scalar", f.Key)
		}
		n.Attrs[f.Key] = f.Value.String()
	}
	for _, attr := range kind.TemplateAttrs {
		if n.Attrs[attr] == "" {
			return nil, metafmt.NewTemplateError(path, "%s needs the %s attribute", name, attr)
		}
	}

	n.Institute = firstNonEmpty(n.Attrs[metafmt.AttrInstitute], globals[metafmt.AttrInstitute])
	n.Project = firstNonEmpty(n.Attrs[metafmt.AttrProject], globals[metafmt.AttrProject])
	if n.Institute == "" || n.Project == "" {
		return nil, &metafmt.TemplateError{
			Path:    path,
			Message: "institute and project must be set",
			Hint:    "set them in metafmt.yaml (global), at the template top level, or on the element",
		}
	}

	daoNode, hasDAO := value.Get(keyDAO)
	linkNode, hasLink := value.Get(keyLink)
	switch {
	case hasDAO && hasLink:
		return nil, metafmt.NewTemplateError(path, "element has both a dao and a link")
	case !hasDAO && !hasLink:
		return nil, metafmt.NewTemplateError(path, "element needs a dao or a link")
	case hasDAO:
		if err := b.resolveDAO(n, daoNode); err != nil {
			return nil, err
		}
	default:
		if err := resolveLink(n, linkNode); err != nil {
			return nil, err
		}
		n.RefersTo[n.Link.Type] = true
		if !n.Link.Optional {
			n.Requires[n.Link.Type] = true
		}
	}

	children, err := contents(path, value)
	if err != nil {
		return nil, err
	}
	for i, c := range children {
		child, err := b.node(path, c.Key, c.Value, map[string]string{
			metafmt.AttrInstitute: n.Institute,
			metafmt.AttrProject:   n.Project,
		}, false)
		if err != nil {
			return nil, err
		}
		child.Index = i
		n.Children = append(n.Children, child)
		for t := range child.Below {
			n.Below[t] = true
		}
		for t := range child.RefersTo {
			n.RefersTo[t] = true
		}
		for t := range child.Requires {
			n.Requires[t] = true
		}
	}
	return n, nil
}

func (b *Builder) resolveDAO(n *Node, v *template.Node) error {
	if v.Kind != template.MappingNode || len(v.Fields) != 1 {
		return metafmt.NewTemplateError(n.Path, "dao must be a mapping with one DAO type")
	}
	daoType := v.Fields[0].Key
	factory, ok := b.Site.Lookup(daoType)
	if !ok {
		return metafmt.NewTemplateError(n.Path, "site %s has no DAO %s", b.Site.Name(), daoType)
	}
	opts, err := v.Fields[0].Value.Flatten()
	if err != nil {
		return &metafmt.TemplateError{Path: n.Path, Message: "bad options for " + daoType, Err: err}
	}

	env := metafmt.NewParams(opts).Over(metafmt.NewParams(b.Env))
	dao, err := factory(env)
	if err != nil {
		var tplErr *metafmt.TemplateError
		if errors.As(err, &tplErr) {
			return err
		}
		return &metafmt.TemplateError{Path: n.Path, Message: "cannot create " + daoType, Err: err}
	}
	n.DAO = dao
	n.DAOType = daoType
	n.Env = env
	return nil
}

func resolveLink(n *Node, v *template.Node) error {
	if !n.Kind.Linkable {
		return metafmt.NewTemplateError(n.Path, "%s cannot take a link", n.Kind.Name)
	}
	if v.Kind != template.MappingNode {
		return metafmt.NewTemplateError(n.Path, "link must be a mapping")
	}
	typeNode, _ := v.Get("type")
	if typeNode.String() == "" {
		return metafmt.NewTemplateError(n.Path, "link needs a type")
	}
	nameNode, ok := v.Get("name")
	if !ok {
		return &metafmt.TemplateError{
			Path:    n.Path,
			Message: "link needs a name",
			Hint:    `use "name": "" to take the names from the enclosing element`,
		}
	}
	optional, _ := v.Get("optional")
	n.Link = &Link{Type: typeNode.String(), Name: nameNode.String(), Optional: optional.Bool()}
	n.Env = metafmt.Params{}
	return nil
}

// contents returns the children of an element in template order. Children
// are written as a list of single-key mappings so that order and repeated
// types survive every template syntax.
func contents(path string, value *template.Node) ([]template.Field, error) {
	c, ok := value.Get(keyContents)
	if !ok || (c.Kind == template.ScalarNode && c.Type == template.NullScalar) {
		return nil, nil
	}
	if c.Kind != template.SequenceNode {
		return nil, &metafmt.TemplateError{
			Path:    path,
			Message: "contents must be a list",
			Hint:    `write contents as [{"Type": {...}}, ...]`,
		}
	}
	out := make([]template.Field, 0, len(c.Items))
	for i, item := range c.Items {
		if item.Kind != template.MappingNode || len(item.Fields) != 1 {
			return nil, metafmt.NewTemplateError(path, "contents[%d] must be a mapping with one element type", i)
		}
		out = append(out, item.Fields[0])
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
