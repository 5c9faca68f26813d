package elements

import (
	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

func init() {
	register(&Kind{
		Name:       "GridSpec",
		SchemaType: "GridSpec",
		Required:   []string{"short_name"},
		Optional:   []string{"long_name", "description"},
		Registers:  "GridSpec",
		NameAttr:   "short_name",
		Slot:       "grids",
		Collection: true,
	})

	register(&Kind{
		Name:          "GridMosaic",
		SchemaType:    "GridMosaic",
		Required:      []string{"type"},
		Optional:      []string{"short_name", "long_name", "description"},
		TemplateAttrs: []string{"esm_type"},
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			// A mosaic is a leaf unless it nests further mosaics.
			leaf := true
			for _, child := range c.Children {
				if child == "GridMosaic" {
					leaf = false
					break
				}
			}
			e.Set("is_leaf", leaf)
			return nil
		},
		attach: func(c *Context, parent, child *schema.Element) {
			switch {
			case parent.Type == "GridMosaic":
				parent.Append("mosaics", child)
			case c.Attrs["esm_type"] == "model":
				parent.Append("esm_model_grids", child)
			default:
				parent.Append("esm_exchange_grids", child)
			}
		},
	})

	register(&Kind{
		Name:       "GridTile",
		SchemaType: "GridTile",
		Required:   []string{"discretization_type"},
		Optional:   []string{"short_name", "long_name", "description", "is_uniform", "is_regular"},
		Slot:       "tiles",
		Collection: true,
	})
}
