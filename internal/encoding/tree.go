package encoding

import (
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/metafmt/internal/schema"
)

// Keys of the identity block every element carries.
const (
	metaKey     = "meta"
	metaID      = "id"
	metaType    = "type"
	metaInst    = "institute"
	metaProject = "project"
	metaVersion = "version"
	dateLayout  = "2006-01-02"
	stampLayout = time.RFC3339
)

// entry is one key of an ordered mapping.
type entry struct {
	Key   string
	Value interface{}
}

// ordered is a mapping that keeps insertion order.
type ordered []entry

// tree turns an element into nested ordered mappings. Slot values are a
// list for collections and a single mapping otherwise.
func tree(e *schema.Element) ordered {
	out := ordered{{Key: metaKey, Value: meta(e)}}
	for _, f := range e.Fields {
		if f.Value == nil {
			continue
		}
		out = append(out, entry{Key: f.Name, Value: scalar(f.Value)})
	}
	for _, s := range e.Slots {
		if len(s.Elements) == 0 {
			continue
		}
		if !s.Collection {
			out = append(out, entry{Key: s.Name, Value: tree(s.Elements[0])})
			continue
		}
		children := make([]interface{}, len(s.Elements))
		for i, c := range s.Elements {
			children[i] = tree(c)
		}
		out = append(out, entry{Key: s.Name, Value: children})
	}
	return out
}

func meta(e *schema.Element) ordered {
	m := ordered{
		{Key: metaID, Value: e.ID},
		{Key: metaType, Value: e.Type},
	}
	if e.Institute != "" {
		m = append(m, entry{Key: metaInst, Value: e.Institute})
	}
	if e.Project != "" {
		m = append(m, entry{Key: metaProject, Value: e.Project})
	}
	return append(m, entry{Key: metaVersion, Value: e.Version})
}

// scalar normalizes a field value to string, bool, number, or []string.
// Times without a clock part are written as dates.
func scalar(v interface{}) interface{} {
	switch x := v.(type) {
	case string, bool, int, int64, float64, []string:
		return x
	case time.Time:
		return formatTime(x)
	case []interface{}:
		out := make([]string, len(x))
		for i, item := range x {
			out[i] = text(item)
		}
		return out
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(stampLayout)
}

// text renders a normalized scalar as a single string.
func text(v interface{}) string {
	switch x := scalar(v).(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	default:
		return fmt.Sprint(x)
	}
}
