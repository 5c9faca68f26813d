package encoding

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/vvka-141/metafmt/internal/schema"
)

// encodeXML writes each element as a tag named after its type, with the
// identity block as attributes. Fields become child tags in order; a list
// field repeats its tag. Slots wrap their elements in a tag of the slot
// name.
func encodeXML(root *schema.Element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := writeElement(enc, root); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeElement(enc *xml.Encoder, e *schema.Element) error {
	attrs := []xml.Attr{{Name: xml.Name{Local: metaID}, Value: e.ID}}
	if e.Institute != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: metaInst}, Value: e.Institute})
	}
	if e.Project != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: metaProject}, Value: e.Project})
	}
	attrs = append(attrs, xml.Attr{Name: xml.Name{Local: metaVersion}, Value: strconv.Itoa(e.Version)})

	start := xml.StartElement{Name: xml.Name{Local: e.Type}, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range e.Fields {
		if f.Value == nil {
			continue
		}
		values, ok := scalar(f.Value).([]string)
		if !ok {
			values = []string{text(f.Value)}
		}
		for _, v := range values {
			if err := enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: f.Name}}); err != nil {
				return err
			}
		}
	}
	for _, s := range e.Slots {
		if len(s.Elements) == 0 {
			continue
		}
		slot := xml.StartElement{Name: xml.Name{Local: s.Name}}
		if err := enc.EncodeToken(slot); err != nil {
			return err
		}
		for _, c := range s.Elements {
			if err := writeElement(enc, c); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(slot.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
