package crem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/metafmt/internal/store"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Date layouts used in the CREM tables.
const (
	releaseDateLayout    = "2006-01-02"
	simulationDateLayout = "2006-01-02 15:04:05"
)

// queries are the lookups several DAOs share.
type queries struct {
	store store.Store
}

// row returns the single matching row or a metadata error naming the query.
func (q *queries) row(ctx context.Context, table string, retrieve []string, where map[string]string) (store.Record, error) {
	rec, err := q.store.SingleRow(ctx, table, retrieve, where)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, metafmt.NewMetadataError("no record in %s matching %s", table, describeWhere(where))
	}
	return rec, nil
}

// column returns one column of every matching row.
func (q *queries) column(ctx context.Context, table, col string, where map[string]string) ([]string, error) {
	recs, err := q.store.MultiRow(ctx, table, []string{col}, where)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(recs))
	for i, r := range recs {
		values[i] = r[col]
	}
	return values, nil
}

// nameForExpt returns the short name of an experiment.
func (q *queries) nameForExpt(ctx context.Context, exptID string) (string, error) {
	rec, err := q.row(ctx, "tblexperiment", []string{"shortname"}, map[string]string{"idexperiment": exptID})
	if err != nil {
		return "", err
	}
	return rec["shortname"], nil
}

func (q *queries) idForModel(ctx context.Context, model string) (string, error) {
	rec, err := q.store.SingleRow(ctx, "tblmodel", []string{"idtblmodel"}, map[string]string{"shortname": model})
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", metafmt.NewMetadataError("no model matching %s found", model)
	}
	return rec["idtblmodel"], nil
}

func (q *queries) idForProject(ctx context.Context, project string) (string, error) {
	rec, err := q.store.SingleRow(ctx, "tblactivity", []string{"idtblactivity"}, map[string]string{"shortname": project})
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", metafmt.NewMetadataError("no project matching %s found", project)
	}
	return rec["idtblactivity"], nil
}

// idForExperiment finds the experiment of a project run with model. An
// experiment's long name carries the model it was run with; several
// distinct matches are an inconsistency.
func (q *queries) idForExperiment(ctx context.Context, experiment, projectID, model string) (string, error) {
	recs, err := q.store.MultiRow(ctx, "tblexperiment", []string{"idexperiment", "name"},
		map[string]string{"activityid": projectID, "shortname": experiment})
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", metafmt.NewMetadataError("no experiment matching %s found", experiment)
	}
	models := map[string]bool{}
	var id string
	for _, r := range recs {
		if strings.Contains(r["name"], model) {
			models[r["name"]] = true
			id = r["idexperiment"]
		}
	}
	if len(models) > 1 {
		return "", metafmt.NewMetadataError("multiple models for %s", experiment)
	}
	if id == "" {
		return "", metafmt.NewMetadataError("no experiment %s run with %s found", experiment, model)
	}
	return id, nil
}

// experimentFor resolves the project and experiment names in opts.
func (q *queries) experimentFor(ctx context.Context, opts metafmt.Params) (string, error) {
	projectID, err := q.idForProject(ctx, opts.Value(OptProject))
	if err != nil {
		return "", err
	}
	return q.idForExperiment(ctx, opts.Value(OptExperiment), projectID, opts.Value(OptModel))
}

// calendarForExpt returns the one calendar every run of an experiment uses.
func (q *queries) calendarForExpt(ctx context.Context, exptID string) (string, error) {
	sims, err := q.column(ctx, "tblsimulation", "idtblsimulation", map[string]string{"experimentid": exptID})
	if err != nil {
		return "", err
	}
	var calendar string
	for _, sim := range sims {
		cals, err := q.column(ctx, "tblmodelrun", "runCalendar", map[string]string{"simulation": sim})
		if err != nil {
			return "", err
		}
		for _, cal := range cals {
			if calendar != "" && cal != calendar {
				return "", metafmt.NewMetadataError("multiple calendar types for experiment id %s", exptID)
			}
			calendar = cal
		}
	}
	if calendar == "" {
		return "", metafmt.NewMetadataError("no calendar found for experiment id %s", exptID)
	}
	return calendar, nil
}

// toMetadata converts a row into metadata, renaming columns to attribute
// names. Empty values become absent attributes.
func toMetadata(rec store.Record, rename map[string]string) metafmt.Metadata {
	md := make(metafmt.Metadata, len(rec))
	for col, v := range rec {
		key := col
		if to, ok := rename[col]; ok {
			key = to
		}
		if v == "" {
			md[key] = nil
		} else {
			md[key] = v
		}
	}
	return md
}

func parseDate(layout, value, what string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, &metafmt.DataAccessError{
			Kind:    metafmt.MetadataInconsistency,
			Message: fmt.Sprintf("bad %s %q", what, value),
			Err:     err,
		}
	}
	return t, nil
}

// checkTarget rejects blank-name links to a type the instance cannot name.
func checkTarget(targetType, want string) error {
	if targetType != want {
		return metafmt.NewMetadataError("invalid type %s, can only name %s references", targetType, want)
	}
	return nil
}

func describeWhere(where map[string]string) string {
	parts := make([]string, 0, len(where))
	for _, k := range store.SortedKeys(where) {
		parts = append(parts, k+"="+where[k])
	}
	return strings.Join(parts, ", ")
}
