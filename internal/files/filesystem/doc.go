// Package filesystem provides the file access the flat-file metadata store
// and the template loader read through.
//
// Implementations:
//   - OSFileSystem: production implementation using the OS filesystem
//   - MemoryFileSystem: in-memory implementation for tests
//
// Missing paths are reported with errors wrapping fs.ErrNotExist so callers
// can tell "absent" apart from "unreadable".
package filesystem
