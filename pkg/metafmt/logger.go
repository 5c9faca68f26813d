package metafmt

// Logger receives progress messages from a document build. Messages are
// printf-style and carry no trailing newline. Implementations must tolerate
// calls from several goroutines.
type Logger interface {
	// Verbose reports per-element progress, shown only with --verbose.
	Verbose(format string, args ...interface{})
	Info(format string, args ...interface{})
	// Warn reports a problem that does not stop the build, such as an
	// element that fails validation.
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}
