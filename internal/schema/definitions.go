package schema

import "sort"

// SlotDef describes one child slot a schema type accepts.
type SlotDef struct {
	Collection bool
	Required   bool
}

// Definition lists the attributes and slots of one schema type.
type Definition struct {
	Type     string
	Document bool
	Required []string
	Optional []string
	Slots    map[string]SlotDef
}

// Accepts reports whether name is a known attribute of the type.
func (d *Definition) Accepts(name string) bool {
	for _, a := range d.Required {
		if a == name {
			return true
		}
	}
	for _, a := range d.Optional {
		if a == name {
			return true
		}
	}
	return false
}

func (d *Definition) slotNames() []string {
	names := make([]string, 0, len(d.Slots))
	for name := range d.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	coll    = SlotDef{Collection: true}
	reqColl = SlotDef{Collection: true, Required: true}
	scalar  = SlotDef{}
	reqOne  = SlotDef{Required: true}
)

func shared(slots map[string]SlotDef) map[string]SlotDef {
	out := map[string]SlotDef{
		"citations":           coll,
		"responsible_parties": coll,
	}
	for k, v := range slots {
		out[k] = v
	}
	return out
}

func requirement(typeName string) *Definition {
	return &Definition{
		Type:     typeName,
		Required: []string{"name"},
		Optional: []string{"description"},
		Slots:    shared(nil),
	}
}

// Definitions is the closed catalogue of schema types.
var Definitions = map[string]*Definition{
	"DocumentSet": {
		Type:     "DocumentSet",
		Document: true,
		Optional: []string{"short_name"},
		Slots: map[string]SlotDef{
			"experiment": scalar,
			"simulation": scalar,
			"platform":   scalar,
			"model":      scalar,
			"data":       coll,
			"ensembles":  coll,
			"grids":      coll,
		},
	},
	"NumericalExperiment": {
		Type:     "NumericalExperiment",
		Document: true,
		Required: []string{"short_name", "long_name", "calendar"},
		Optional: []string{"description"},
		Slots:    shared(map[string]SlotDef{"requirements": coll}),
	},
	"InitialCondition":         requirement("InitialCondition"),
	"SpatioTemporalConstraint": requirement("SpatioTemporalConstraint"),
	"BoundaryCondition":        requirement("BoundaryCondition"),
	"DataObject": {
		Type:     "DataObject",
		Document: true,
		Required: []string{"acronym"},
		Optional: []string{"description"},
		Slots:    shared(nil),
	},
	"Platform": {
		Type:     "Platform",
		Document: true,
		Required: []string{"short_name"},
		Optional: []string{"long_name"},
		Slots:    shared(map[string]SlotDef{"units": reqColl}),
	},
	"MachineCompilerUnit": {
		Type:  "MachineCompilerUnit",
		Slots: map[string]SlotDef{"machine": reqOne, "compilers": reqColl},
	},
	"Machine": {
		Type:     "Machine",
		Required: []string{"name"},
	},
	"Compiler": {
		Type:     "Compiler",
		Required: []string{"name", "version"},
	},
	"SimulationRun": {
		Type:     "SimulationRun",
		Document: true,
		Required: []string{"short_name", "long_name"},
		Optional: []string{"description"},
		Slots: shared(map[string]SlotDef{
			"date_range":          reqOne,
			"calendar":            reqOne,
			"conformances":        coll,
			"deployments":         coll,
			"supports_references": coll,
			"model_reference":     scalar,
			"input_references":    coll,
		}),
	},
	"ClosedDateRange": {
		Type:     "ClosedDateRange",
		Required: []string{"start", "end"},
	},
	"Daily360":     {Type: "Daily360"},
	"RealCalendar": {Type: "RealCalendar"},
	"Deployment": {
		Type:  "Deployment",
		Slots: shared(map[string]SlotDef{"platform_reference": scalar}),
	},
	"Ensemble": {
		Type:     "Ensemble",
		Document: true,
		Required: []string{"short_name", "long_name", "types"},
		Slots: shared(map[string]SlotDef{
			"members":             coll,
			"supports_references": coll,
		}),
	},
	"EnsembleMember": {
		Type:     "EnsembleMember",
		Required: []string{"short_name", "long_name"},
		Optional: []string{"description"},
		Slots: map[string]SlotDef{
			"ensemble_ids":         coll,
			"simulation_reference": scalar,
		},
	},
	"StandardName": {
		Type:     "StandardName",
		Required: []string{"value", "is_open"},
	},
	"Conformance": {
		Type:     "Conformance",
		Required: []string{"is_conformant"},
		Optional: []string{"description", "type"},
		Slots: map[string]SlotDef{
			"requirements_references": coll,
			"sources_references":      coll,
		},
	},
	"ResponsibleParty": {
		Type:     "ResponsibleParty",
		Optional: []string{"email", "address", "url", "individual_name", "organisation_name"},
	},
	"Citation": {
		Type:     "Citation",
		Required: []string{"title", "date"},
		Optional: []string{"location", "collective_title"},
	},
	"DocReference": {
		Type:     "DocReference",
		Optional: []string{"id", "name", "description", "type", "version"},
	},
	"ModelComponent": {
		Type:     "ModelComponent",
		Document: true,
		Required: []string{"short_name", "types"},
		Optional: []string{"long_name", "description", "release_date"},
		Slots: shared(map[string]SlotDef{
			"sub_components":  coll,
			"properties":      coll,
			"grid_references": coll,
		}),
	},
	"ComponentProperty": {
		Type:     "ComponentProperty",
		Required: []string{"short_name", "is_represented"},
		Optional: []string{"description", "units", "values"},
		Slots:    map[string]SlotDef{"sub_properties": coll},
	},
	"GridSpec": {
		Type:     "GridSpec",
		Document: true,
		Required: []string{"short_name"},
		Optional: []string{"long_name", "description"},
		Slots: shared(map[string]SlotDef{
			"esm_model_grids":    coll,
			"esm_exchange_grids": coll,
		}),
	},
	"GridMosaic": {
		Type:     "GridMosaic",
		Required: []string{"type", "is_leaf"},
		Optional: []string{"short_name", "long_name", "description"},
		Slots: shared(map[string]SlotDef{
			"mosaics": coll,
			"tiles":   coll,
		}),
	},
	"GridTile": {
		Type:     "GridTile",
		Required: []string{"discretization_type"},
		Optional: []string{"short_name", "long_name", "description", "is_uniform", "is_regular"},
	},
}

// Lookup returns the definition of a schema type.
func Lookup(typeName string) (*Definition, bool) {
	d, ok := Definitions[typeName]
	return d, ok
}
