package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/metafmt/internal/store"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

var _ store.Store = (*Store)(nil)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		retrieve []string
		where    map[string]string
		limit    int
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "no constraint",
			table:    "tblrequirements",
			retrieve: []string{"id", "includes"},
			wantSQL:  `SELECT "id"::text, "includes"::text FROM "tblrequirements"`,
		},
		{
			name:     "single row keeps column case",
			table:    "tblmodel",
			retrieve: []string{"shortname", "releaseDate"},
			where:    map[string]string{"idtblmodel": "1"},
			limit:    1,
			wantSQL:  `SELECT "shortname"::text, "releaseDate"::text FROM "tblmodel" WHERE "idtblmodel"::text = $1 LIMIT 1`,
			wantArgs: []any{"1"},
		},
		{
			name:     "constraints in key order with NULL",
			table:    "tblmodelcomponent",
			retrieve: []string{"idtModelComponent"},
			where:    map[string]string{"parentComponentID": store.Null, "modelID": "1", "level": "1"},
			wantSQL: `SELECT "idtModelComponent"::text FROM "tblmodelcomponent" WHERE "level"::text = $1 ` +
				`AND "modelID"::text = $2 AND "parentComponentID" IS NULL`,
			wantArgs: []any{"1", "1"},
		},
		{
			name:     "identifiers are quoted",
			table:    `tbl"x`,
			retrieve: []string{"a"},
			wantSQL:  `SELECT "a"::text FROM "tbl""x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildQuery(tt.table, tt.retrieve, tt.where, tt.limit)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		wantIs error
	}{
		{"undefined column", &pgconn.PgError{Code: undefinedColumn, Message: `column "nope" does not exist`}, metafmt.ErrMetadataInconsistency},
		{"undefined table", &pgconn.PgError{Code: undefinedTable}, metafmt.ErrMetadataInconsistency},
		{"other server error", &pgconn.PgError{Code: "22P02"}, metafmt.ErrMetadataInconsistency},
		{"cancelled", context.Canceled, context.Canceled},
		{"network", errors.New("unexpected EOF"), metafmt.ErrConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "tblmodel", []string{"shortname"}, nil)
			assert.ErrorIs(t, err, tt.wantIs)
		})
	}
}
