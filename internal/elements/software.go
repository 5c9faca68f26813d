package elements

import (
	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

func init() {
	register(&Kind{
		Name:       "Deployment",
		SchemaType: "Deployment",
		Slot:       "deployments",
		Collection: true,
	})

	// Model and SubModel are both ModelComponents; they differ in the
	// metadata a document usually carries for them.
	register(&Kind{
		Name:       "Model",
		SchemaType: "ModelComponent",
		Required:   []string{"short_name"},
		Optional:   []string{"long_name", "description", "release_date"},
		Registers:  "ModelComponent",
		NameAttr:   "short_name",
		Slot:       "model",
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			e.Set("types", []string{"ModelComponent"})
			return nil
		},
	})

	register(&Kind{
		Name:       "SubModel",
		SchemaType: "ModelComponent",
		Required:   []string{"short_name"},
		Optional:   []string{"long_name", "description"},
		Needs:      []string{"type"},
		Registers:  "ModelComponent",
		NameAttr:   "short_name",
		Slot:       "sub_components",
		Collection: true,
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			e.Set("types", []string{text(md["type"])})
			return nil
		},
		// Sub-model names are qualified by their container so that
		// same-named components under different parents stay distinct.
		refName: func(c *Context, md metafmt.Metadata) string {
			short := text(md["short_name"])
			if short == "" {
				return ""
			}
			container := c.Container
			if container == "" {
				container = c.Env.Value("model")
			}
			if container == "" {
				return short
			}
			return container + ":" + short
		},
	})

	register(&Kind{
		Name:       "ComponentProperty",
		SchemaType: "ComponentProperty",
		Required:   []string{"short_name"},
		Optional:   []string{"description", "units", "values"},
		Slot:       "properties",
		Collection: true,
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			e.Set("is_represented", true)
			return nil
		},
	})
}
