// Package postgres reads the CREM metadata store from its PostgreSQL
// database through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/metafmt/internal/store"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Querier is the part of a pool the store uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store is a store.Store over a PostgreSQL database. Every value is read as
// text; NULL reads as "".
type Store struct {
	db   Querier
	pool *pgxpool.Pool
}

// Open connects to the database described by config.
func Open(ctx context.Context, config *ConnectionConfig) (*Store, error) {
	pool, err := Connect(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Store{db: pool, pool: pool}, nil
}

// New wraps an existing connection.
func New(db Querier) *Store {
	return &Store{db: db}
}

func (s *Store) SingleRow(ctx context.Context, table string, retrieve []string, where map[string]string) (store.Record, error) {
	recs, err := s.query(ctx, table, retrieve, where, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

func (s *Store) MultiRow(ctx context.Context, table string, retrieve []string, where map[string]string) ([]store.Record, error) {
	return s.query(ctx, table, retrieve, where, 0)
}

// Close closes the pool if the Store opened it.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) query(ctx context.Context, table string, retrieve []string, where map[string]string, limit int) ([]store.Record, error) {
	sql, args := buildQuery(table, retrieve, where, limit)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err, table, retrieve, where)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		values := make([]*string, len(retrieve))
		dest := make([]any, len(retrieve))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, classify(err, table, retrieve, where)
		}
		rec := make(store.Record, len(retrieve))
		for i, col := range retrieve {
			if values[i] != nil {
				rec[col] = *values[i]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, store.CleanRecord(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, table, retrieve, where)
	}
	return out, nil
}

// buildQuery renders a text-typed equality query. Identifiers are quoted
// as given, so mixed-case CREM columns ("releaseDate") keep their case.
// A where value of store.Null matches SQL NULL.
func buildQuery(table string, retrieve []string, where map[string]string, limit int) (string, []any) {
	cols := make([]string, len(retrieve))
	for i, c := range retrieve {
		cols[i] = pgx.Identifier{c}.Sanitize() + "::text"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), pgx.Identifier{table}.Sanitize())

	var args []any
	for i, col := range store.SortedKeys(where) {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		ident := pgx.Identifier{col}.Sanitize()
		if where[col] == store.Null {
			fmt.Fprintf(&b, "%s IS NULL", ident)
			continue
		}
		args = append(args, where[col])
		fmt.Fprintf(&b, "%s::text = $%d", ident, len(args))
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String(), args
}

// PostgreSQL error codes for a query naming a table or column that is not
// there.
const (
	undefinedColumn = "42703"
	undefinedTable  = "42P01"
)

func classify(err error, table string, retrieve []string, where map[string]string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case undefinedColumn:
			return metafmt.NewMetadataError("no attribute in %s: %s", table, pgErr.Message)
		case undefinedTable:
			return metafmt.NewMetadataError("no table called %s", table)
		}
		return &metafmt.DataAccessError{
			Kind:    metafmt.MetadataInconsistency,
			Message: fmt.Sprintf("query on %s failed", table),
			Err:     err,
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return metafmt.NewConnectionError(err, "query on %s failed", table)
}
