// Package csvstore reads the CREM metadata store from a directory of CSV
// dumps, one file per table (tblmodel.csv, tblexperiment.csv, ...). The
// first row of each file is the header.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/vvka-141/metafmt/internal/files/filesystem"
	"github.com/vvka-141/metafmt/internal/store"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// Extension is appended to table names to find their dump files.
const Extension = ".csv"

// Store is a read-only store.Store over CSV dumps. Tables are parsed on
// first use and kept for the life of the Store.
type Store struct {
	fs  filesystem.FileSystemProvider
	dir string

	mu     sync.Mutex
	tables map[string]*table
}

type table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// Open returns a Store reading dumps from dir.
func Open(provider filesystem.FileSystemProvider, dir string) (*Store, error) {
	info, err := provider.Stat(dir)
	if err != nil {
		return nil, metafmt.NewConnectionError(err, "cannot open CSV directory %s", dir)
	}
	if !info.IsDir() {
		return nil, metafmt.NewConnectionError(nil, "CSV path %s is not a directory", dir)
	}
	return &Store{fs: provider, dir: dir, tables: map[string]*table{}}, nil
}

func (s *Store) SingleRow(ctx context.Context, name string, retrieve []string, where map[string]string) (store.Record, error) {
	var first store.Record
	err := s.scan(ctx, name, retrieve, where, func(r store.Record) bool {
		first = r
		return false
	})
	return first, err
}

func (s *Store) MultiRow(ctx context.Context, name string, retrieve []string, where map[string]string) ([]store.Record, error) {
	var out []store.Record
	err := s.scan(ctx, name, retrieve, where, func(r store.Record) bool {
		out = append(out, r)
		return true
	})
	return out, err
}

// Close releases the parsed tables.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = map[string]*table{}
	return nil
}

// scan calls fn with every matching row until fn returns false.
func (s *Store) scan(ctx context.Context, name string, retrieve []string, where map[string]string, fn func(store.Record) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := s.table(name)
	if err != nil {
		return err
	}
	if missing := store.MissingColumns(t.header, retrieve, where); len(missing) > 0 {
		return store.ErrMissingColumns(name, missing)
	}

	for _, row := range t.rows {
		if !t.matches(row, where) {
			continue
		}
		rec := make(store.Record, len(retrieve))
		for _, col := range retrieve {
			rec[col] = t.value(row, col)
		}
		if !fn(store.CleanRecord(rec)) {
			return nil
		}
	}
	return nil
}

func (t *table) value(row []string, col string) string {
	i := t.index[col]
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func (t *table) matches(row []string, where map[string]string) bool {
	for col, want := range where {
		if t.value(row, col) != want {
			return false
		}
	}
	return true
}

func (s *Store) table(name string) (*table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		return t, nil
	}

	path := filepath.Join(s.dir, name+Extension)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, metafmt.NewConnectionError(err, "couldn't connect to %s: no dump at %s", name, path)
		}
		return nil, metafmt.NewConnectionError(err, "couldn't connect to %s", name)
	}

	t, err := parse(data)
	if err != nil {
		return nil, metafmt.NewConnectionError(err, "couldn't read %s", path)
	}
	s.tables[name] = t
	return t, nil
}

func parse(data []byte) (*table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}
	t := &table{header: header, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, row)
	}
}
