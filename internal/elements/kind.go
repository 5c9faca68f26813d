package elements

import (
	"fmt"
	"sort"
	"time"

	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Context carries what a Kind needs beyond the metadata record.
type Context struct {
	IDs       schema.IDSource
	Institute string
	Project   string

	// Attrs are the node's scalar template attributes (link_to, esm_type).
	Attrs map[string]string

	// Env is the node's DAO environment.
	Env metafmt.Params

	// Children are the kind names of the node's template children.
	Children []string

	// Container is the registered name of the enclosing element, if any.
	Container string
}

// Kind describes one element type a template may name.
type Kind struct {
	Name       string
	SchemaType string
	Required   []string
	Optional   []string

	// Needs are required attributes consumed by extend rather than copied.
	Needs []string

	// AnyOptional requires at least one Optional attribute to be present.
	AnyOptional bool

	// Registers is the registry type for references; "" never registers.
	Registers string
	NameAttr  string

	// Slot and Collection place the element on its parent.
	Slot       string
	Collection bool

	// Reference kinds attach under the template's link_to attribute.
	Reference bool

	// Linkable kinds may take their metadata from a link instead of a DAO.
	Linkable bool

	// TemplateAttrs must be present on the template node.
	TemplateAttrs []string

	schemaType func(md metafmt.Metadata) (string, error)
	extend     func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error
	attach     func(c *Context, parent, child *schema.Element)
	refName    func(c *Context, md metafmt.Metadata) string
}

// RootOnly reports whether the kind has no place on a parent.
func (k *Kind) RootOnly() bool {
	return k.Slot == "" && !k.Reference && k.attach == nil
}

// Build validates md against the kind's contract and constructs the element.
func (k *Kind) Build(c *Context, md metafmt.Metadata) (*schema.Element, error) {
	if md == nil {
		md = metafmt.Metadata{}
	}
	for _, attr := range k.Needs {
		if !present(md, attr) {
			return nil, &metafmt.ContractError{Type: k.Name, Attribute: attr}
		}
	}
	if k.AnyOptional && !anyPresent(md, k.Optional) {
		return nil, &metafmt.ContractError{Type: k.Name, Message: fmt.Sprintf("need at least one of %v", k.Optional)}
	}

	typeName := k.SchemaType
	if k.schemaType != nil {
		var err error
		if typeName, err = k.schemaType(md); err != nil {
			return nil, err
		}
	}

	e := schema.New(c.IDs, typeName, c.Institute, c.Project)
	if err := Populate(k.Name, e, md, k.Required, k.Optional); err != nil {
		return nil, err
	}
	if k.extend != nil {
		if err := k.extend(k, c, md, e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Populate copies required and optional attributes from md onto e. A
// missing or null required attribute is a ContractError naming it; absent
// optional attributes are skipped.
func Populate(kind string, e *schema.Element, md metafmt.Metadata, required, optional []string) error {
	for _, attr := range required {
		if !present(md, attr) {
			return &metafmt.ContractError{Type: kind, Attribute: attr}
		}
		e.Set(attr, md[attr])
	}
	for _, attr := range optional {
		if present(md, attr) {
			e.Set(attr, md[attr])
		}
	}
	return nil
}

// RefName returns the name the element registers under, or "".
func (k *Kind) RefName(c *Context, md metafmt.Metadata) string {
	if k.refName != nil {
		return k.refName(c, md)
	}
	if k.NameAttr == "" {
		return ""
	}
	return text(md[k.NameAttr])
}

// Attach places child on parent according to the kind's insertion rule.
func (k *Kind) Attach(c *Context, parent, child *schema.Element) {
	switch {
	case k.attach != nil:
		k.attach(c, parent, child)
	case k.Reference:
		slot := c.Attrs["link_to"]
		if schema.IsReferenceSlot(slot) {
			parent.Append(slot, child)
		} else {
			parent.Put(slot, child)
		}
	case k.Collection:
		parent.Append(k.Slot, child)
	default:
		parent.Put(k.Slot, child)
	}
}

func present(md metafmt.Metadata, attr string) bool {
	v, ok := md[attr]
	return ok && v != nil
}

func anyPresent(md metafmt.Metadata, attrs []string) bool {
	for _, a := range attrs {
		if present(md, a) {
			return true
		}
	}
	return false
}

func text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

var catalogue = map[string]*Kind{}

func register(k *Kind) {
	if _, dup := catalogue[k.Name]; dup {
		panic("elements: duplicate kind " + k.Name)
	}
	catalogue[k.Name] = k
}

// Lookup returns the kind registered under name.
func Lookup(name string) (*Kind, bool) {
	k, ok := catalogue[name]
	return k, ok
}

// Names returns every kind name, sorted.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
