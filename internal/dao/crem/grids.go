package crem

import (
	"context"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

var gridNames = map[string]string{
	"ShortName":   "short_name",
	"LongName":    "long_name",
	"Description": "description",
}

// CREM records only regular latitude-longitude grids.
const (
	mosaicType         = "regular_lat_lon"
	discretizationType = "logically_rectangular"
)

type gridSpecDao struct {
	q *queries
}

func newGridSpecDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &gridSpecDao{q: q}
}

func (d *gridSpecDao) Expand(_ context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	return single(base), nil
}

func (d *gridSpecDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

// fetch finds the grid system of the one model the experiment's
// simulations ran.
func (d *gridSpecDao) fetch(ctx context.Context, c metafmt.Constraint, _ metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	if err := needID(c); err != nil {
		return nil, metafmt.Params{}, err
	}
	models, err := d.q.column(ctx, "tblsimulation", "modelid", map[string]string{"experimentid": c.ID})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	switch models = distinct(models); len(models) {
	case 0:
		return nil, metafmt.Params{}, metafmt.NewMetadataError("no simulations for experiment id %s", c.ID)
	case 1:
	default:
		return nil, metafmt.Params{}, metafmt.NewMetadataError("multiple model ids for experiment id %s", c.ID)
	}

	model, err := d.q.row(ctx, "tblmodel", []string{"gridsystemid"}, map[string]string{"idtblmodel": models[0]})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	system := model["gridsystemid"]
	rec, err := d.q.row(ctx, "tblgridsystem", []string{"ShortName", "LongName", "Description"},
		map[string]string{"idgridsystem": system})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	return toMetadata(rec, gridNames), metafmt.NewParams(map[string]string{stateGridSystem: system}), nil
}

type gridMosaicDao struct {
	q *queries
}

func newGridMosaicDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &gridMosaicDao{q: q}
}

func (d *gridMosaicDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	return carry(container, stateGridSystem), nil
}

func (d *gridMosaicDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	system := base.Value(stateGridSystem)
	if system == "" {
		return nil, metafmt.NewMetadataError("need a grid system id to find grid mosaics")
	}
	ids, err := d.q.column(ctx, "tblgridset", "idgridset", map[string]string{"idgridsystem": system})
	if err != nil {
		return nil, err
	}
	return fanOut(base, stateMosaicID, ids), nil
}

func (d *gridMosaicDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *gridMosaicDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	rec, err := d.q.row(ctx, "tblgridset", []string{"ShortName", "LongName", "Description"},
		map[string]string{"idgridset": p.Value(stateMosaicID)})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(rec, gridNames)
	md["type"] = mosaicType
	return md, metafmt.Params{}, nil
}

const stateGridID = "grid_id"

type gridTileDao struct {
	q *queries
}

func newGridTileDao(q *queries, _ metafmt.Params) metafmt.DAO {
	return &gridTileDao{q: q}
}

func (d *gridTileDao) ContainerMetadata(container metafmt.Instance) (metafmt.Params, error) {
	return carry(container, stateMosaicID), nil
}

func (d *gridTileDao) Expand(ctx context.Context, _ metafmt.Constraint, base metafmt.Params) ([]metafmt.Params, error) {
	mosaic := base.Value(stateMosaicID)
	if mosaic == "" {
		return nil, metafmt.NewMetadataError("need a grid mosaic id to find grid tiles")
	}
	ids, err := d.q.column(ctx, "tblgrid", "idgrid", map[string]string{"idgridset": mosaic})
	if err != nil {
		return nil, err
	}
	return fanOut(base, stateGridID, ids), nil
}

func (d *gridTileDao) Bind(p metafmt.Params) metafmt.Instance { return bind(d, p) }

func (d *gridTileDao) fetch(ctx context.Context, _ metafmt.Constraint, p metafmt.Params) (metafmt.Metadata, metafmt.Params, error) {
	rec, err := d.q.row(ctx, "tblgrid", []string{"ShortName", "LongName", "Description", "isUniform", "isRegular"},
		map[string]string{"idgrid": p.Value(stateGridID)})
	if err != nil {
		return nil, metafmt.Params{}, err
	}
	md := toMetadata(map[string]string{
		"ShortName":   rec["ShortName"],
		"LongName":    rec["LongName"],
		"Description": rec["Description"],
	}, gridNames)
	md["discretization_type"] = discretizationType
	md["is_uniform"] = rec["isUniform"] == "1"
	md["is_regular"] = rec["isRegular"] == "1"
	return md, metafmt.Params{}, nil
}
