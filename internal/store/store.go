// Package store defines the row-lookup interface the CREM DAOs query, and
// the string cleaning every store applies to the values it returns.
package store

import (
	"context"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Null matches a missing value in a where clause: SQL NULL in a database,
// the literal text NULL in a CSV dump.
const Null = "NULL"

// Record is one row, restricted to the requested columns. Values are
// cleaned; an empty string means the column was empty or NULL.
type Record map[string]string

// Store answers equality queries against named tables. Every column named
// in retrieve or where must exist in the table, otherwise the query fails
// with a metadata inconsistency. Store errors are DataAccessErrors.
type Store interface {
	// SingleRow returns the first matching row, or nil when none matches.
	SingleRow(ctx context.Context, table string, retrieve []string, where map[string]string) (Record, error)

	// MultiRow returns every matching row in table order.
	MultiRow(ctx context.Context, table string, retrieve []string, where map[string]string) ([]Record, error)

	Close() error
}

var (
	windowsNewlines = regexp.MustCompile(`\r\n`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes free text: Windows line endings become "\n", runs of
// three or more newlines collapse to one blank line, HTML character
// entities are decoded, and anything outside 7-bit ASCII (and DEL) is
// dropped.
func Clean(s string) string {
	if s == "" {
		return s
	}
	s = windowsNewlines.ReplaceAllString(s, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	s = html.UnescapeString(s)
	return strings.Map(func(r rune) rune {
		if r >= 127 {
			return -1
		}
		return r
	}, s)
}

// CleanRecord cleans every value of r in place and returns it.
func CleanRecord(r Record) Record {
	for k, v := range r {
		r[k] = Clean(v)
	}
	return r
}

// MissingColumns returns the names in retrieve and where that header lacks,
// in the order they were asked for.
func MissingColumns(header []string, retrieve []string, where map[string]string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	seen := map[string]bool{}
	check := func(name string) {
		if !have[name] && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
	}
	for _, name := range retrieve {
		check(name)
	}
	for _, name := range SortedKeys(where) {
		check(name)
	}
	return missing
}

// ErrMissingColumns reports columns absent from table.
func ErrMissingColumns(table string, missing []string) error {
	return metafmt.NewMetadataError("no attribute called %s in %s", strings.Join(missing, ", "), table)
}

// SortedKeys returns the keys of where in a stable order.
func SortedKeys(where map[string]string) []string {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
