// Package crem provides the "crem" site: DAOs over the CREM metadata
// store, read either from its PostgreSQL database or from CSV dumps of
// its tables.
//
// Every DAO reads the document selectors from its options (experiment,
// model, submodel, project) and passes the database keys its children need
// through the instance context.
package crem

import (
	"github.com/vvka-141/metafmt/internal/dao"
	"github.com/vvka-141/metafmt/internal/store"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// SiteName is the name the site registers under.
const SiteName = "crem"

// DAO option and environment keys.
const (
	OptExperiment = "experiment"
	OptModel      = "model"
	OptSubModel   = "submodel"
	OptProject    = "project"

	// OptConformanceType selects data-source conformances when set to
	// "data_source".
	OptConformanceType = "type"
)

// NewSite returns the crem site reading from s.
func NewSite(s store.Store) *dao.Site {
	q := &queries{store: s}
	factory := func(build func(*queries, metafmt.Params) (metafmt.DAO, error)) metafmt.DAOFactory {
		return func(opts metafmt.Params) (metafmt.DAO, error) { return build(q, opts) }
	}
	plain := func(build func(*queries, metafmt.Params) metafmt.DAO) metafmt.DAOFactory {
		return func(opts metafmt.Params) (metafmt.DAO, error) { return build(q, opts), nil }
	}
	return dao.NewSite(SiteName, map[string]metafmt.DAOFactory{
		"DocumentSetDao":             plain(newDocumentSetDao),
		"NumericalExperimentDao":     plain(newNumericalExperimentDao),
		"NumericalRequirementDao":    plain(newNumericalRequirementDao),
		"NumericalRequirementRefDao": plain(newNumericalRequirementRefDao),
		"DataObjectDao":              plain(newDataObjectDao),
		"PlatformDao":                plain(newPlatformDao),
		"SimulationRunDao":           plain(newSimulationRunDao),
		"EnsembleDao":                plain(newEnsembleDao),
		"EnsembleMemberDao":          plain(newEnsembleMemberDao),
		"ConformanceDao":             factory(newConformanceDao),
		"ModelDao":                   plain(newModelDao),
		"SubModelDao":                plain(newSubModelDao),
		"ComponentPropertyDao":       plain(newComponentPropertyDao),
		"ModelComponentRefDao":       plain(newModelComponentRefDao),
		"DeploymentDao":              plain(newDeploymentDao),
		"ResponsiblePartyDao":        plain(newResponsiblePartyDao),
		"CitationDao":                plain(newCitationDao),
		"GridSpecDao":                plain(newGridSpecDao),
		"GridMosaicDao":              plain(newGridMosaicDao),
		"GridTileDao":                plain(newGridTileDao),
	})
}

// needOpts checks that the named options are set.
func needOpts(opts metafmt.Params, what string, keys ...string) error {
	for _, k := range keys {
		if opts.Value(k) == "" {
			return metafmt.NewMetadataError("%s needs the %s option", what, k)
		}
	}
	return nil
}
