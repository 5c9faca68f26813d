package assembly

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/metafmt/internal/elements"
	"github.com/vvka-141/metafmt/internal/idregistry"
	"github.com/vvka-141/metafmt/internal/logging"
	"github.com/vvka-141/metafmt/internal/metrics"
	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Walker materializes an arranged Document into a schema element tree.
type Walker struct {
	IDs     schema.IDSource
	Logger  metafmt.Logger
	Metrics *metrics.Build
}

// NewWalker returns a Walker using random identifiers and no logging.
func NewWalker() *Walker {
	return &Walker{IDs: schema.RandomIDs{}, Logger: logging.NewNullLogger()}
}

type walk struct {
	*Walker
	registry idregistry.Registry
	refersTo map[string]bool
}

// frame is one materialized element seen by its children.
type frame struct {
	inst    metafmt.Instance
	element *schema.Element
	name    string
}

// Build walks doc top-down. The top element is built once; every other node
// fans out into as many elements as its DAO expands to, for each instance of
// its parent. Elements register their reference names as soon as they are
// populated, so arrange the tree first if references point right.
func (w *Walker) Build(ctx context.Context, doc *Document) (*schema.Element, error) {
	if w.IDs == nil {
		w.IDs = schema.RandomIDs{}
	}
	if w.Logger == nil {
		w.Logger = logging.NewNullLogger()
	}
	run := &walk{Walker: w, registry: doc.Registry, refersTo: doc.Root.RefersTo}
	defer w.Metrics.ObserveDuration()()

	top := doc.Root
	inst, err := run.bindTop(ctx, top)
	if err != nil {
		return nil, err
	}
	md, err := inst.Metadata(ctx, metafmt.Constraint{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", top.Path, err)
	}
	kc := run.kindContext(top, "")
	e, err := top.Kind.Build(kc, md)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", top.Path, err)
	}
	name, err := run.register(top, kc, md, e)
	if err != nil {
		return nil, err
	}
	w.Metrics.ElementBuilt(e.Type)
	w.Logger.Verbose("Built %s %s", top.Path, describe(e, name))

	parent := &frame{inst: inst, element: e, name: name}
	constraint := metafmt.Constraint{ID: inst.ID()}
	for _, child := range top.Children {
		if err := run.node(ctx, child, parent, constraint); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (r *walk) bindTop(ctx context.Context, top *Node) (metafmt.Instance, error) {
	records, err := top.DAO.Expand(ctx, metafmt.Constraint{}, metafmt.Params{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", top.Path, err)
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("%s: %w", top.Path,
			metafmt.NewMetadataError("the top-level element expanded to %d records, need exactly 1", len(records)))
	}
	return top.DAO.Bind(records[0]), nil
}

func (r *walk) node(ctx context.Context, n *Node, parent *frame, c metafmt.Constraint) error {
	dao := n.DAO
	if n.Link != nil {
		dao = &linkSource{link: n.Link, registry: r.registry, container: parent.inst}
	}

	base := metafmt.Params{}
	if aware, ok := dao.(metafmt.ContainerAware); ok {
		var err error
		if base, err = aware.ContainerMetadata(parent.inst); err != nil {
			return fmt.Errorf("%s: %w", n.Path, err)
		}
	}
	records, err := dao.Expand(ctx, c, base)
	if err != nil {
		return fmt.Errorf("%s: %w", n.Path, err)
	}
	r.Logger.Verbose("Expanding %s under %s: %d instance(s)", n.Path, parent.element.Type, len(records))

	kc := r.kindContext(n, parent.name)
	for _, p := range records {
		inst := dao.Bind(p)
		md, err := inst.Metadata(ctx, c)
		if errors.Is(err, errOmitted) {
			r.Logger.Verbose("Skipping %s: %v", n.Path, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", n.Path, err)
		}

		e, err := n.Kind.Build(kc, md)
		if err != nil {
			return fmt.Errorf("%s: %w", n.Path, err)
		}
		name, err := r.register(n, kc, md, e)
		if err != nil {
			return err
		}
		if n.Link != nil {
			r.Metrics.ReferenceResolved()
		}
		r.Metrics.ElementBuilt(e.Type)
		r.Logger.Verbose("Built %s %s", n.Path, describe(e, name))

		childConstraint := c
		if id := inst.ID(); id != "" {
			childConstraint = metafmt.Constraint{ID: id}
		}
		self := &frame{inst: inst, element: e, name: name}
		for _, child := range n.Children {
			if err := r.node(ctx, child, self, childConstraint); err != nil {
				return err
			}
		}
		n.Kind.Attach(kc, parent.element, e)
	}
	return nil
}

func (r *walk) kindContext(n *Node, container string) *elements.Context {
	return &elements.Context{
		IDs:       r.IDs,
		Institute: n.Institute,
		Project:   n.Project,
		Attrs:     n.Attrs,
		Env:       n.Env,
		Children:  n.ChildKinds(),
		Container: container,
	}
}

// register records e's identifier when something in the document links to
// its type. It returns the element's reference name either way.
func (r *walk) register(n *Node, kc *elements.Context, md metafmt.Metadata, e *schema.Element) (string, error) {
	name := n.Kind.RefName(kc, md)
	typ := n.Kind.Registers
	if typ == "" || !r.refersTo[typ] {
		return name, nil
	}
	if name == "" {
		return "", fmt.Errorf("%s: %w", n.Path, &metafmt.ContractError{
			Type:      n.Kind.Name,
			Attribute: n.Kind.NameAttr,
			Message:   "needed to register the element for references",
		})
	}
	if err := r.registry.Add(typ, name, e.ID); err != nil {
		return "", fmt.Errorf("%s: %w", n.Path, err)
	}
	r.Logger.Verbose("Registered %s as %s", idregistry.Key(typ, name), e.ID)
	return name, nil
}

func describe(e *schema.Element, name string) string {
	if name == "" {
		return e.Type + " " + e.ID
	}
	return fmt.Sprintf("%s %q %s", e.Type, name, e.ID)
}
