package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type entry struct {
	name  string
	data  []byte
	dir   bool
	added time.Time
}

func (e *entry) Name() string       { return e.name }
func (e *entry) Size() int64        { return int64(len(e.data)) }
func (e *entry) ModTime() time.Time { return e.added }
func (e *entry) IsDir() bool        { return e.dir }
func (e *entry) Sys() interface{}   { return nil }

func (e *entry) Mode() fs.FileMode {
	if e.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}

// MemoryFileSystem holds templates and CSV dumps in memory for tests.
// Directories exist implicitly for every added file.
type MemoryFileSystem struct {
	root    string
	entries map[string]*entry
}

// NewMemoryFileSystem returns an empty filesystem. Relative paths resolve
// against root.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	m := &MemoryFileSystem{
		root:    path.Clean(filepath.ToSlash(root)),
		entries: map[string]*entry{},
	}
	m.entries[m.root] = &entry{name: path.Base(m.root), dir: true, added: time.Now()}
	return m
}

// AddFile stores content at p, replacing any earlier file.
func (m *MemoryFileSystem) AddFile(p, content string) {
	full := m.resolve(p)
	m.entries[full] = &entry{name: path.Base(full), data: []byte(content), added: time.Now()}
	m.mkdirAll(path.Dir(full))
}

func (m *MemoryFileSystem) mkdirAll(dir string) {
	for dir != "/" && dir != "." {
		if _, ok := m.entries[dir]; ok {
			return
		}
		m.entries[dir] = &entry{name: path.Base(dir), dir: true, added: time.Now()}
		dir = path.Dir(dir)
	}
}

func (m *MemoryFileSystem) resolve(p string) string {
	p = filepath.ToSlash(p)
	switch {
	case p == "" || p == ".":
		return m.root
	case path.IsAbs(p):
		return path.Clean(p)
	default:
		return path.Join(m.root, p)
	}
}

func (m *MemoryFileSystem) ReadFile(p string) ([]byte, error) {
	e, ok := m.entries[m.resolve(p)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	if e.dir {
		return nil, fmt.Errorf("reading %s: is a directory", p)
	}
	return e.data, nil
}

func (m *MemoryFileSystem) Stat(p string) (FileInfo, error) {
	e, ok := m.entries[m.resolve(p)]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	}
	return e, nil
}

// Paths lists the stored files, relative to root where possible, sorted.
func (m *MemoryFileSystem) Paths() []string {
	var out []string
	for p, e := range m.entries {
		if !e.dir {
			out = append(out, strings.TrimPrefix(p, m.root+"/"))
		}
	}
	sort.Strings(out)
	return out
}
