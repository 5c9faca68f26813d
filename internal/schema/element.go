package schema

import (
	"strconv"
	"strings"
)

// DocumentVersion is written into every element's metadata block.
const DocumentVersion = 0

// Field is one attribute value. Values are string, bool, int, float64,
// []string or time.Time.
type Field struct {
	Name  string
	Value interface{}
}

// Slot holds the children attached under one name.
type Slot struct {
	Name       string
	Collection bool
	Elements   []*Element
}

// Element is one node of the output document.
type Element struct {
	ID        string
	Type      string
	Institute string
	Project   string
	Version   int
	Fields    []Field
	Slots     []*Slot
}

// New creates an element with a fresh identifier from ids.
func New(ids IDSource, typeName, institute, project string) *Element {
	return &Element{
		ID:        ids.NewID(typeName),
		Type:      typeName,
		Institute: institute,
		Project:   project,
		Version:   DocumentVersion,
	}
}

// Set stores a field, replacing any earlier value of the same name.
func (e *Element) Set(name string, value interface{}) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			e.Fields[i].Value = value
			return
		}
	}
	e.Fields = append(e.Fields, Field{Name: name, Value: value})
}

// Get returns the value of a field.
func (e *Element) Get(name string) (interface{}, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// GetString returns a string field or "".
func (e *Element) GetString(name string) string {
	v, _ := e.Get(name)
	s, _ := v.(string)
	return s
}

// Append adds child to the named collection slot.
func (e *Element) Append(slot string, child *Element) {
	s := e.slot(slot, true)
	s.Elements = append(s.Elements, child)
}

// Put sets child as the single value of the named scalar slot.
func (e *Element) Put(slot string, child *Element) {
	s := e.slot(slot, false)
	s.Elements = []*Element{child}
}

// Children returns the elements attached under slot.
func (e *Element) Children(slot string) []*Element {
	for _, s := range e.Slots {
		if s.Name == slot {
			return s.Elements
		}
	}
	return nil
}

func (e *Element) slot(name string, collection bool) *Slot {
	for _, s := range e.Slots {
		if s.Name == name {
			return s
		}
	}
	s := &Slot{Name: name, Collection: collection}
	e.Slots = append(e.Slots, s)
	return s
}

// IsReferenceSlot reports whether a reference attached under name goes
// into a collection. Names ending in "references" are lists.
func IsReferenceSlot(name string) bool {
	return strings.HasSuffix(name, "references")
}

// Walk visits e and every descendant depth-first. path is the chain of
// slot names from the root, joined with "/".
func (e *Element) Walk(fn func(path string, el *Element) error) error {
	return e.walk(e.Type, fn)
}

func (e *Element) walk(path string, fn func(string, *Element) error) error {
	if err := fn(path, e); err != nil {
		return err
	}
	for _, s := range e.Slots {
		for i, child := range s.Elements {
			childPath := path + "/" + s.Name
			if s.Collection {
				childPath += "[" + strconv.Itoa(i) + "]"
			}
			if err := child.walk(childPath, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Count returns the number of elements in the tree rooted at e.
func (e *Element) Count() int {
	n := 0
	_ = e.Walk(func(string, *Element) error {
		n++
		return nil
	})
	return n
}
