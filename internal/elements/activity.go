package elements

import (
	"fmt"

	"github.com/vvka-141/metafmt/internal/schema"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

var requirementTypes = map[string]string{
	"initial":        "InitialCondition",
	"spatiotemporal": "SpatioTemporalConstraint",
	"boundary":       "BoundaryCondition",
}

var calendarTypes = map[string]string{
	"360_day":   "Daily360",
	"gregorian": "RealCalendar",
}

func init() {
	register(&Kind{
		Name:       "NumericalExperiment",
		SchemaType: "NumericalExperiment",
		Required:   []string{"short_name", "long_name", "calendar"},
		Optional:   []string{"description"},
		Registers:  "NumericalExperiment",
		NameAttr:   "short_name",
		Slot:       "experiment",
	})

	register(&Kind{
		Name:       "NumericalRequirement",
		Required:   []string{"name"},
		Optional:   []string{"description"},
		Needs:      []string{"type"},
		Slot:       "requirements",
		Collection: true,
		schemaType: func(md metafmt.Metadata) (string, error) {
			t := text(md["type"])
			st, ok := requirementTypes[t]
			if !ok {
				return "", &metafmt.ContractError{Type: "NumericalRequirement", Attribute: "type",
					Message: fmt.Sprintf("unknown numerical requirement type %q", t)}
			}
			return st, nil
		},
	})

	register(&Kind{
		Name:       "SimulationRun",
		SchemaType: "SimulationRun",
		Required:   []string{"long_name", "short_name"},
		Optional:   []string{"description"},
		Needs:      []string{"start_date", "end_date", "calendar"},
		Registers:  "SimulationRun",
		NameAttr:   "short_name",
		Slot:       "simulation",
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			calendar := text(md["calendar"])
			calType, ok := calendarTypes[calendar]
			if !ok {
				return &metafmt.ContractError{Type: k.Name, Attribute: "calendar",
					Message: fmt.Sprintf("unknown calendar type %q", calendar)}
			}
			dates := schema.New(c.IDs, "ClosedDateRange", c.Institute, c.Project)
			dates.Set("start", md["start_date"])
			dates.Set("end", md["end_date"])
			e.Put("date_range", dates)
			e.Put("calendar", schema.New(c.IDs, calType, c.Institute, c.Project))
			return nil
		},
	})

	register(&Kind{
		Name:       "Ensemble",
		SchemaType: "Ensemble",
		Required:   []string{"long_name", "short_name"},
		Needs:      []string{"type"},
		Registers:  "Ensemble",
		NameAttr:   "short_name",
		Slot:       "ensembles",
		Collection: true,
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			e.Set("types", []string{text(md["type"])})
			return nil
		},
	})

	register(&Kind{
		Name:       "EnsembleMember",
		SchemaType: "EnsembleMember",
		Required:   []string{"short_name", "long_name"},
		Optional:   []string{"description"},
		Slot:       "members",
		Collection: true,
		extend: func(k *Kind, c *Context, md metafmt.Metadata, e *schema.Element) error {
			if !present(md, "standard_name") {
				return nil
			}
			name := schema.New(c.IDs, "StandardName", c.Institute, c.Project)
			name.Set("value", text(md["standard_name"]))
			name.Set("is_open", true)
			e.Append("ensemble_ids", name)
			return nil
		},
	})

	register(&Kind{
		Name:       "Conformance",
		SchemaType: "Conformance",
		Required:   []string{"is_conformant"},
		Optional:   []string{"description", "type"},
		Slot:       "conformances",
		Collection: true,
	})
}
