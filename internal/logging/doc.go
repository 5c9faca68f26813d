// Package logging implements metafmt.Logger for the command line
// (ConsoleLogger) and for callers that want silence (NullLogger).
package logging
