package schema

import (
	"fmt"
	"reflect"
)

// Invalid describes one structural problem in a document.
type Invalid struct {
	Path   string
	Type   string
	ID     string
	Reason string
}

func (i Invalid) String() string {
	return fmt.Sprintf("%s (%s %s): %s", i.Path, i.Type, i.ID, i.Reason)
}

// Validate checks the tree rooted at root and returns every invalid
// element. An empty result means the document is valid.
func Validate(root *Element) []Invalid {
	var invalid []Invalid
	_ = root.Walk(func(path string, e *Element) error {
		report := func(format string, args ...interface{}) {
			invalid = append(invalid, Invalid{Path: path, Type: e.Type, ID: e.ID, Reason: fmt.Sprintf(format, args...)})
		}

		def, ok := Lookup(e.Type)
		if !ok {
			report("unknown schema type")
			return nil
		}
		if e.ID == "" {
			report("missing identifier")
		}
		if def.Document && (e.Institute == "" || e.Project == "") {
			report("document metadata needs institute and project")
		}
		for _, attr := range def.Required {
			v, ok := e.Get(attr)
			if !ok || isEmpty(v) {
				report("required attribute %q missing", attr)
			}
		}
		for _, f := range e.Fields {
			if !def.Accepts(f.Name) {
				report("unknown attribute %q", f.Name)
			}
		}
		for _, s := range e.Slots {
			sd, ok := def.Slots[s.Name]
			if !ok {
				report("unknown slot %q", s.Name)
				continue
			}
			if !sd.Collection && len(s.Elements) > 1 {
				report("slot %q holds %d elements, expected at most one", s.Name, len(s.Elements))
			}
		}
		for _, name := range def.slotNames() {
			if def.Slots[name].Required && len(e.Children(name)) == 0 {
				report("required slot %q empty", name)
			}
		}
		if e.Type == "DocReference" {
			if _, hasID := e.Get("id"); !hasID && e.GetString("name") == "" {
				report("reference needs an id or a name")
			}
		}
		return nil
	})
	return invalid
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case bool:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
