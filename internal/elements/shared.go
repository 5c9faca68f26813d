package elements

import (
	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

func init() {
	register(&Kind{
		Name:       "Citation",
		SchemaType: "Citation",
		Required:   []string{"title", "date"},
		Optional:   []string{"location", "collective_title"},
		Slot:       "citations",
		Collection: true,
	})

	register(&Kind{
		Name:       "ResponsibleParty",
		SchemaType: "ResponsibleParty",
		Optional:   []string{"email", "address", "url", "individual_name", "organisation_name"},
		Slot:       "responsible_parties",
		Collection: true,
	})

	// DocReference takes its metadata from the ID registry: id, type, name.
	register(&Kind{
		Name:          "DocReference",
		SchemaType:    "DocReference",
		Required:      []string{"id"},
		Optional:      []string{"type", "name"},
		Reference:     true,
		Linkable:      true,
		TemplateAttrs: []string{"link_to"},
	})

	register(&Kind{
		Name:          "ReferenceByName",
		SchemaType:    "DocReference",
		Optional:      []string{"name", "description", "type", "version"},
		AnyOptional:   true,
		Reference:     true,
		TemplateAttrs: []string{"link_to"},
	})

	register(&Kind{
		Name:       "Platform",
		SchemaType: "Platform",
		Required:   []string{"short_name"},
		Optional:   []string{"long_name"},
		Needs:      []string{"machine_name", "compiler_name", "compiler_version"},
		Registers:  "Platform",
		NameAttr:   "short_name",
		Slot:       "platform",
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			machine := schema.New(c.IDs, "Machine", c.Institute, c.Project)
			machine.Set("name", md["machine_name"])

			compiler := schema.New(c.IDs, "Compiler", c.Institute, c.Project)
			compiler.Set("name", md["compiler_name"])
			compiler.Set("version", md["compiler_version"])

			unit := schema.New(c.IDs, "MachineCompilerUnit", c.Institute, c.Project)
			unit.Put("machine", machine)
			unit.Append("compilers", compiler)
			e.Append("units", unit)
			return nil
		},
	})
}
