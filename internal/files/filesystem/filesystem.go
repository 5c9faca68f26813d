package filesystem

import "io/fs"

// FileInfo describes a template file, a CSV dump, or the dump directory.
type FileInfo = fs.FileInfo

// FileSystemProvider is the read-only file access of a document build.
type FileSystemProvider interface {
	// ReadFile returns the whole file. Missing files wrap fs.ErrNotExist.
	ReadFile(path string) ([]byte, error)

	// Stat describes path without reading it.
	Stat(path string) (FileInfo, error)
}
